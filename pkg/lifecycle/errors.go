package lifecycle

import "fmt"

// ChallengeMismatchError is returned when an authentication attempt did not
// stop at the challenge the compound operation depends on. The sequence cannot
// proceed as designed.
type ChallengeMismatchError struct {
	Expected string
	Got      string
}

func (e ChallengeMismatchError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "no challenge"
	}
	got := e.Got
	if got == "" {
		got = "no challenge"
	}
	return fmt.Sprintf("authentication returned %s, expected %s", got, expected)
}

// PartialFailureError is returned when a multi-step sequence failed after an
// irreversible step. Operators must remediate manually; retrying the whole
// operation is not safe.
type PartialFailureError struct {
	Op    string
	Phase string
	Err   error
}

func (e PartialFailureError) Error() string {
	return fmt.Sprintf("%s failed during %s, manual remediation required: %v", e.Op, e.Phase, e.Err)
}

func (e PartialFailureError) Unwrap() error {
	return e.Err
}
