package cognito

import "errors"

// ErrUserNotFound is returned when the target account does not exist in the
// user pool.
var ErrUserNotFound = errors.New("user not found")

// ErrNotAuthorized is returned when an authentication attempt is rejected by
// the provider (wrong password, disabled account).
var ErrNotAuthorized = errors.New("not authorized")
