package cli

// CommandError is returned by a command that already reported its failure
// (diagnostics, load errors) and only needs main to exit with a code.
type CommandError struct {
	exitCode int
}

// NewCommandError creates a CommandError with the given exit code.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

func (e *CommandError) Error() string {
	return "command failed"
}

// ExitCode returns the process exit code.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}
