package app

// ExitResult lets command handlers pick the exit code and the stream their
// message goes to. Successful output travels the same way with Code 0.
type ExitResult struct {
	Code     int
	Message  string
	ToStderr bool
}

func (e ExitResult) Error() string   { return e.Message }
func (e ExitResult) ExitCode() int   { return e.Code }
func (e ExitResult) UseStderr() bool { return e.ToStderr }

// Fail is a code 1 ExitResult on stderr.
func Fail(err error) error {
	if err == nil {
		return nil
	}
	if er, ok := err.(ExitResult); ok {
		return er
	}
	return ExitResult{Code: 1, Message: err.Error(), ToStderr: true}
}

// UsageExit is a code 2 ExitResult for bad flags or arguments.
func UsageExit(message string) error {
	return ExitResult{Code: 2, Message: message, ToStderr: true}
}

// okText creates a success ExitResult with a message for stdout.
func okText(message string) error {
	return ExitResult{Code: 0, Message: message}
}
