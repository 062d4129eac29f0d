package poolmfa

import "fmt"

// ConvergenceTimeoutError is returned when a pool MFA mode write was not
// observably reflected in reads within the bounded poll.
type ConvergenceTimeoutError struct {
	Mode     string
	Attempts int
}

func (e ConvergenceTimeoutError) Error() string {
	return fmt.Sprintf("pool MFA mode did not converge to %s after %d attempts", e.Mode, e.Attempts)
}

// ErrInvalidMode is returned for a mode outside OFF/OPTIONAL/ON.
type ErrInvalidMode struct {
	Mode string
}

func (e ErrInvalidMode) Error() string {
	return fmt.Sprintf("invalid pool MFA mode: %s", e.Mode)
}
