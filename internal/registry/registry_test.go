package registry_test

import (
	"sync"
	"testing"

	"telefetch/internal/registry"
)

func TestAtMostOneAdmissionPerUser(t *testing.T) {
	r := registry.New()

	if !r.TryAcquire(7, "first") {
		t.Fatal("first admission should succeed")
	}
	if r.TryAcquire(7, "second") {
		t.Fatal("second admission for the same user must be rejected")
	}

	desc, ok := r.ActiveDescription(7)
	if !ok || desc != "first" {
		t.Fatalf("expected active description %q, got %q (ok=%v)", "first", desc, ok)
	}

	// A different user is unaffected.
	if !r.TryAcquire(8, "other") {
		t.Fatal("admission for a different user should succeed")
	}

	r.Release(7)
	if !r.TryAcquire(7, "third") {
		t.Fatal("admission after release should succeed")
	}
}

func TestConcurrentAdmissionsAdmitExactlyOne(t *testing.T) {
	r := registry.New()

	const attempts = 32
	var wg sync.WaitGroup
	admitted := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire(42, "task") {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	n := 0
	for range admitted {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 admission, got %d", n)
	}
}

func TestCancelFlagLifecycle(t *testing.T) {
	r := registry.New()

	if r.RequestCancel(5) {
		t.Fatal("cancel without an active task must report false")
	}

	r.TryAcquire(5, "task")
	if !r.RequestCancel(5) {
		t.Fatal("cancel with an active task should succeed")
	}
	if !r.CancelRequested(5) {
		t.Fatal("cancel flag should be set")
	}

	r.ClearCancel(5)
	if r.CancelRequested(5) {
		t.Fatal("cancel flag should be cleared")
	}

	// Release clears any stale flag too.
	r.RequestCancel(5)
	r.Release(5)
	if r.CancelRequested(5) {
		t.Fatal("release must clear the cancel flag")
	}
}

func TestReleaseWithoutAcquireIsSafe(t *testing.T) {
	r := registry.New()
	r.Release(99)

	if !r.TryAcquire(99, "task") {
		t.Fatal("admission after spurious release should succeed")
	}
	if r.TryAcquire(99, "dup") {
		t.Fatal("spurious release must not grant extra admissions")
	}
}
