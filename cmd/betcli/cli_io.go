package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/srikavin/PolyEscrow/internal/txtrack"
)

func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		die("failed to read key: " + err.Error())
	}
	return strings.TrimSpace(string(b))
}

func must(err error, msg string) {
	if err != nil {
		die(msg + ": " + err.Error())
	}
}

func die(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}

// describeError maps common node errors onto short user-facing labels.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, txtrack.ErrReverted) {
		return "[REVERT] " + err.Error()
	}
	s := err.Error()
	if strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005") {
		return "[RATE_LIMIT] provider throttled the request"
	}
	if idx := strings.Index(s, "execution reverted"); idx >= 0 {
		rest := s[idx+len("execution reverted"):]
		if reason := strings.TrimSpace(strings.TrimPrefix(rest, ":")); reason != "" {
			return "[REVERT] " + reason
		}
		return "[REVERT] execution reverted"
	}
	if strings.Contains(s, "insufficient funds") {
		return "[FUNDS] not enough native currency for gas"
	}
	return s
}
