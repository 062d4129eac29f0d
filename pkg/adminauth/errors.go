package adminauth

import "errors"

// ErrInvalidCredentials is returned for both an unknown admin and a wrong
// password, so responses do not leak which admins exist.
var ErrInvalidCredentials = errors.New("invalid credentials")
