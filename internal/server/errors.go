package server

// StartupError reports a failure that prevents the server from serving at
// all: bad configuration, unusable TLS material, a missing root directory
// or a port that cannot be bound. Callers should exit non-zero.
type StartupError struct {
	Op  string
	Err error
}

func (e *StartupError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
