package cognito

import "context"

// Client is the capability set the console consumes from the identity
// provider. Implementations: AWSClient (Cognito) and MockClient (in-memory,
// for tests).
type Client interface {
	// ListUsers returns up to 60 users, optionally narrowed by a provider-side
	// filter expression.
	ListUsers(ctx context.Context, filter string) ([]User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	// CreateUser creates the user with a temporary password and suppresses the
	// welcome notification. The email doubles as the username and is marked
	// verified.
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	DeleteUser(ctx context.Context, username string) error
	EnableUser(ctx context.Context, username string) error
	DisableUser(ctx context.Context, username string) error
	// SetPassword sets a password directly. A non-permanent password forces a
	// mandatory change challenge on next login.
	SetPassword(ctx context.Context, username, password string, permanent bool) error
	// ForceChangePasswordStatus pushes the account back into
	// FORCE_CHANGE_PASSWORD status.
	ForceChangePasswordStatus(ctx context.Context, username string) error
	// Authenticate runs an admin-initiated password authentication, computing
	// the app-client secret hash internally.
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
	// RespondToNewPasswordChallenge consumes a NEW_PASSWORD_REQUIRED challenge
	// session, setting newPassword as the permanent password.
	RespondToNewPasswordChallenge(ctx context.Context, username, newPassword, session string) (*AuthResult, error)
	SetUserMFAPreference(ctx context.Context, username string, pref MFAPreference) error
	// PoolMFAConfig reads the pool-wide MFA policy. Never cached: the value is
	// shared mutable state other operators change concurrently.
	PoolMFAConfig(ctx context.Context) (*PoolMFAConfig, error)
	// SetPoolMFAConfig writes the pool-wide MFA mode. ON and OPTIONAL are
	// always paired with the software-token method enabled at the pool level.
	SetPoolMFAConfig(ctx context.Context, mode string) error
	// AssociateSoftwareToken begins a software-token enrollment for the
	// authenticated user, identified by access token or challenge session.
	AssociateSoftwareToken(ctx context.Context, accessToken, session string) (*SoftwareTokenSetup, error)
	// VerifySoftwareToken confirms the enrollment with the first TOTP code.
	VerifySoftwareToken(ctx context.Context, accessToken, session, code string) error
}
