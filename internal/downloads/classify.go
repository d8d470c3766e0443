package downloads

import (
	"context"
	"errors"
	"strings"

	"telefetch/internal/models"
)

// Class buckets extractor failures for the retry policy.
type Class int

const (
	// ClassPermanent failures propagate immediately.
	ClassPermanent Class = iota
	// ClassTransient failures are retried within the budget.
	ClassTransient
)

// transientSignatures are substrings of known transient network-class
// failures from the external tool. The tool reports failures as opaque
// strings, so substring matching is the only classification available;
// keeping the list here, explicit and short, keeps the fragility out of
// the orchestration logic.
var transientSignatures = []string{
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"connection aborted",
	"broken pipe",
	"unexpected eof",
	"incompleteread",
	"incomplete read",
	"temporary failure",
	"network is unreachable",
	"no route to host",
	"name resolution",
	"tls handshake",
	"urlopen error",
	"http error 500",
	"http error 502",
	"http error 503",
	"http error 504",
	"transport error",
	"socket error",
}

// Classify decides whether a failed attempt may be retried.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	// User aborts and taxonomy errors never retry.
	var de *models.DownloadError
	if errors.As(err, &de) {
		return ClassPermanent
	}
	if errors.Is(err, context.Canceled) {
		return ClassPermanent
	}

	// A fired per-attempt ceiling means a stalled transfer; retry it.
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return ClassTransient
		}
	}

	return ClassPermanent
}
