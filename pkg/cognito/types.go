package cognito

import "time"

// Pool-wide MFA enforcement modes as reported by Cognito. ON is shown to
// operators as REQUIRED.
const (
	MFAModeOff      = "OFF"
	MFAModeOptional = "OPTIONAL"
	MFAModeOn       = "ON"
)

// User statuses the console cares about.
const (
	StatusForceChangePassword = "FORCE_CHANGE_PASSWORD"
	StatusConfirmed           = "CONFIRMED"
)

// MFA method identifiers as they appear in UserMFASettingList.
const (
	MFAMethodSoftwareToken = "SOFTWARE_TOKEN_MFA"
	MFAMethodSMS           = "SMS_MFA"
)

// Challenge names returned by admin-initiated authentication.
const (
	ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"
	ChallengeMFASetup            = "MFA_SETUP"
)

// User is a user pool record. The username is the user's email; Company is
// stored in the Cognito "profile" attribute.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Company      string    `json:"company,omitempty"`
	Enabled      bool      `json:"enabled"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	MFAMethods   []string  `json:"mfaMethods,omitempty"`
	PreferredMFA string    `json:"preferredMfa,omitempty"`
	// MFAOptionsCount is the number of legacy MFAOptions entries
	// (pre-preference SMS configuration). Non-zero counts as an active
	// enrollment even when the preference list is empty.
	MFAOptionsCount int `json:"mfaOptionsCount,omitempty"`
}

// CreateUserParams holds attributes for a new user. Name and Company are
// optional and omitted from the attribute list when empty.
type CreateUserParams struct {
	Email        string
	Name         string
	Company      string
	TempPassword string
}

// AuthResult is the outcome of an admin-initiated authentication attempt:
// either a pending challenge (name plus session token) or an access token.
type AuthResult struct {
	ChallengeName string
	Session       string
	AccessToken   string
}

// HasChallenge reports whether the attempt stopped at an intermediate
// challenge instead of completing.
func (r AuthResult) HasChallenge() bool {
	return r.ChallengeName != ""
}

// MFAMethodSetting controls one MFA method in a user's preference.
type MFAMethodSetting struct {
	Enabled   bool
	Preferred bool
}

// MFAPreference is a per-user MFA preference write. Nil method settings are
// left untouched by the provider.
type MFAPreference struct {
	SoftwareToken *MFAMethodSetting
	SMS           *MFAMethodSetting
}

// PoolMFAConfig is the pool-wide MFA policy singleton.
type PoolMFAConfig struct {
	Mode           string   `json:"mfaConfiguration"`
	EnabledMethods []string `json:"enabledMfaMethods"`
}

// SoftwareTokenSetup is the handle returned when a software-token enrollment
// is started: the shared secret to provision in an authenticator app plus the
// token/session needed to verify the first code.
type SoftwareTokenSetup struct {
	SecretCode  string `json:"secretCode"`
	AccessToken string `json:"accessToken,omitempty"`
	Session     string `json:"session,omitempty"`
}
