// Package logging prints leveled, tagged messages to the console and an
// optional log file.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"telefetch/internal/domain/consts"
)

var (
	// Level controls debug verbosity. Messages logged with a level at or
	// below it are printed.
	Level int

	loggable bool
	logger   *log.Logger
	mu       sync.Mutex
)

// Regular expression to match ANSI escape codes
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// SetupLogging creates and/or opens the log file inside targetDir.
func SetupLogging(targetDir string) error {
	path := filepath.Join(targetDir, "telefetch.log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", path, err)
	}

	mu.Lock()
	defer mu.Unlock()

	logger = log.New(f, "", log.LstdFlags)
	loggable = true

	logger.Printf(":\n=========== %v ===========\n\n", time.Now().Format(time.RFC1123Z))
	return nil
}

// I prints an info message.
func I(format string, args ...interface{}) {
	print(consts.BlueInfo, format, args...)
}

// S prints a success message.
func S(format string, args ...interface{}) {
	print(consts.GreenSuccess, format, args...)
}

// W prints a warning message.
func W(format string, args ...interface{}) {
	print(consts.YellowWarn, format, args...)
}

// E prints an error message with the caller's location appended.
func E(format string, args ...interface{}) {
	pc, file, line, _ := runtime.Caller(1)
	funcName := filepath.Base(runtime.FuncForPC(pc).Name())

	var b strings.Builder
	b.WriteString(consts.RedError)
	fmt.Fprintf(&b, format, args...)
	b.WriteString(" [")
	b.WriteString(consts.ColorBlue)
	b.WriteString("Function: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(funcName)
	b.WriteString(" - ")
	b.WriteString(consts.ColorBlue)
	b.WriteString("File: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(filepath.Base(file))
	b.WriteString(" : ")
	b.WriteString(consts.ColorBlue)
	b.WriteString("Line: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(strconv.Itoa(line))
	b.WriteString("]")

	emit(b.String())
}

// D prints a debug message if the given level is at or below the program
// debug level.
func D(l int, format string, args ...interface{}) {
	if l > Level {
		return
	}
	print(consts.YellowDebug, format, args...)
}

func print(tag, format string, args ...interface{}) {
	var b strings.Builder
	b.Grow(len(tag) + len(format) + (len(args) * 16))
	b.WriteString(tag)

	if len(args) != 0 {
		fmt.Fprintf(&b, format, args...)
	} else {
		b.WriteString(format)
	}

	emit(b.String())
}

// emit writes the message to the console and, if enabled, the log file
// with ANSI codes stripped.
func emit(msg string) {
	mu.Lock()
	defer mu.Unlock()

	fmt.Println(msg)
	if loggable {
		logger.Print(stripAnsiCodes(msg) + "\n")
	}
}

// stripAnsiCodes removes ANSI escape codes from a string
func stripAnsiCodes(input string) string {
	return ansiEscape.ReplaceAllString(input, "")
}
