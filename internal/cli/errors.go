// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/kantah-chat/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with context and an exit code.
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
	Code    int
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a failure to reach the chat server.
func NetworkError(command, url string, err error) error {
	return &CommandError{
		Command: command,
		Action:  "connect",
		Reason:  "cannot reach " + url + " (is `kantah serve` running?)",
		Err:     err,
		Code:    ExitNetworkError,
	}
}

// ExitCode maps an error onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}
	var verrs config.ValidateErrors
	if errors.Is(err, config.ErrMissingAPIKey) || errors.As(err, &verrs) {
		return ExitConfigError
	}
	return ExitGeneralError
}

// PrintError writes err to w in the error style.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("Error:"), err)
}
