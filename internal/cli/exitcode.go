package cli

import "errors"

// Exit codes per §6: "0=ok, 2=validation/schema, 3=compile, 4=run,
// 5=config, other=internal".
const (
	ExitOK         = 0
	ExitValidation = 2
	ExitCompile    = 3
	ExitRun        = 4
	ExitConfig     = 5
	ExitInternal   = 1
)

// CLIError pairs an error with the exit code main() should use for
// it, the way tarsy's HTTP handlers pair an error with a status code
// rather than leaving the caller to guess from the error's text.
type CLIError struct {
	Code int
	Err  error
}

func (e *CLIError) Error() string { return e.Err.Error() }
func (e *CLIError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code for err: ExitOK for nil, the
// code carried by a *CLIError, or ExitInternal for anything else.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ExitInternal
}
