package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poolctl/cognito-admin/pkg/cognito"
	"github.com/poolctl/cognito-admin/pkg/poolmfa"
)

// Well-known throwaway passwords. The setup password is transiently valid
// between the temporary-password set and the challenge response in
// SetPermanentPassword. Known risk: an attacker guessing the constant inside
// that window could authenticate. Documented, not fixed; the provider offers
// no single-call permanent-password primitive for accounts in
// FORCE_CHANGE_PASSWORD status.
const (
	setupTempPassword    = "TempSetup123!"
	defaultResetPassword = "TempPass123!"
)

// Service sequences compound account mutations against the identity provider.
// Each step's result gates the next; mutating steps are never retried
// automatically, only the pool convergence poll retries (reads only).
type Service struct {
	idp  cognito.Client
	pool *poolmfa.Service
}

// NewService creates an account lifecycle orchestrator.
func NewService(idp cognito.Client, pool *poolmfa.Service) *Service {
	return &Service{idp: idp, pool: pool}
}

// SetPermanentPassword drives an account to a chosen permanent password:
// force a password-change status (best-effort), set a throwaway temporary
// password, authenticate with it, and answer the resulting
// NEW_PASSWORD_REQUIRED challenge with the new password. On success the
// account is CONFIRMED with newPassword as a non-temporary credential.
func (s *Service) SetPermanentPassword(ctx context.Context, username, newPassword string) error {
	// The account may already be in FORCE_CHANGE_PASSWORD status.
	if err := s.idp.ForceChangePasswordStatus(ctx, username); err != nil {
		slog.Warn("Ignoring password status reset failure", "username", username, "err", err)
	}

	if err := s.idp.SetPassword(ctx, username, setupTempPassword, false); err != nil {
		return fmt.Errorf("failed to set setup password: %w", err)
	}

	auth, err := s.idp.Authenticate(ctx, username, setupTempPassword)
	if err != nil {
		return fmt.Errorf("failed to authenticate with setup password: %w", err)
	}
	if auth.ChallengeName != cognito.ChallengeNewPasswordRequired {
		return ChallengeMismatchError{
			Expected: cognito.ChallengeNewPasswordRequired,
			Got:      auth.ChallengeName,
		}
	}

	if _, err := s.idp.RespondToNewPasswordChallenge(ctx, username, newPassword, auth.Session); err != nil {
		return fmt.Errorf("failed to complete password challenge: %w", err)
	}

	slog.Info("Permanent password set", "username", username)
	return nil
}

// ForcePasswordReset sets a temporary password, forcing the user to choose a
// new one on next login. An empty newPassword falls back to a well-known
// default.
func (s *Service) ForcePasswordReset(ctx context.Context, username, newPassword string) error {
	if newPassword == "" {
		newPassword = defaultResetPassword
	}
	if err := s.idp.SetPassword(ctx, username, newPassword, false); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	slog.Info("Password reset to temporary", "username", username)
	return nil
}

// RecreateUser deletes and re-creates an account, preserving its email, name
// and company attributes. This is the only supported way to wipe a corrupted
// MFA enrollment: the re-created account comes back with fresh credential and
// MFA state. The operation is deliberately non-atomic: a failure after the
// delete leaves the account gone and surfaces as PartialFailureError so
// operators know manual remediation, not retry, is required.
func (s *Service) RecreateUser(ctx context.Context, username, tempPassword string) (*cognito.User, error) {
	current, err := s.idp.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to read user before recreate: %w", err)
	}

	email := current.Email
	if email == "" {
		email = username
	}

	if err := s.idp.DeleteUser(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to delete user for recreate: %w", err)
	}

	created, err := s.idp.CreateUser(ctx, cognito.CreateUserParams{
		Email:        email,
		Name:         current.Name,
		Company:      current.Company,
		TempPassword: tempPassword,
	})
	if err != nil {
		return nil, PartialFailureError{Op: "recreate user " + username, Phase: "create after delete", Err: err}
	}

	slog.Info("User recreated", "username", username, "email", email)
	return created, nil
}

// CreateUser creates an account with the given attributes and a temporary
// password, then drives the pool MFA mode to ON: new accounts always start
// under mandatory-MFA policy.
func (s *Service) CreateUser(ctx context.Context, email, name, company, tempPassword string) (*cognito.User, error) {
	created, err := s.idp.CreateUser(ctx, cognito.CreateUserParams{
		Email:        email,
		Name:         name,
		Company:      company,
		TempPassword: tempPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.pool.SetConfig(ctx, cognito.MFAModeOn); err != nil {
		return created, PartialFailureError{Op: "create user " + email, Phase: "pool MFA config", Err: err}
	}

	slog.Info("User created", "email", email)
	return created, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if err := s.idp.DeleteUser(ctx, username); err != nil {
		return err
	}
	slog.Info("User deleted", "username", username)
	return nil
}

// EnableUser re-enables a disabled account.
func (s *Service) EnableUser(ctx context.Context, username string) error {
	return s.idp.EnableUser(ctx, username)
}

// DisableUser disables an account without touching password or MFA state.
func (s *Service) DisableUser(ctx context.Context, username string) error {
	return s.idp.DisableUser(ctx, username)
}

// EnableMFA enables software-token MFA for a user, first making sure the pool
// is not in unconditional ON mode: per-user preferences are only meaningful
// under OPTIONAL semantics.
func (s *Service) EnableMFA(ctx context.Context, username string) error {
	if err := s.ensurePoolEditable(ctx); err != nil {
		return err
	}
	err := s.idp.SetUserMFAPreference(ctx, username, cognito.MFAPreference{
		SoftwareToken: &cognito.MFAMethodSetting{Enabled: true, Preferred: true},
	})
	if err != nil {
		return err
	}
	slog.Info("MFA enabled", "username", username)
	return nil
}

// DisableMFA disables both software-token and SMS MFA for a user, with the
// same pool precondition as EnableMFA. Disabling on an account with MFA
// already off is a no-op. Disabling can leave the provider-side credential
// state inconsistent in some configurations; callers are expected to follow
// up with ForcePasswordReset.
func (s *Service) DisableMFA(ctx context.Context, username string) error {
	if err := s.ensurePoolEditable(ctx); err != nil {
		return err
	}
	err := s.idp.SetUserMFAPreference(ctx, username, cognito.MFAPreference{
		SoftwareToken: &cognito.MFAMethodSetting{Enabled: false},
		SMS:           &cognito.MFAMethodSetting{Enabled: false},
	})
	if err != nil {
		return err
	}
	slog.Info("MFA disabled", "username", username)
	return nil
}

// ensurePoolEditable transitions the pool from ON to OPTIONAL and blocks until
// the change is observably visible. Per-user MFA writes issued before the
// mode converges would land under the wrong enforcement semantics.
func (s *Service) ensurePoolEditable(ctx context.Context) error {
	cfg, err := s.pool.GetConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Mode != cognito.MFAModeOn {
		return nil
	}

	slog.Info("Pool MFA mode is ON, switching to OPTIONAL before per-user MFA change")
	if err := s.pool.SetConfig(ctx, cognito.MFAModeOptional); err != nil {
		return err
	}
	return s.pool.WaitForMode(ctx, cognito.MFAModeOptional)
}

// MFAStatus is the per-user MFA enrollment summary shown in the directory.
type MFAStatus struct {
	Active      bool `json:"mfaActive"`
	TOTPEnabled bool `json:"totpEnabled"`
	SMSEnabled  bool `json:"smsEnabled"`
}

// UserMFAStatus derives a user's MFA status. When the pool mode is ON every
// user is reported as MFA-active, since enforcement happens pool-wide
// regardless of per-user preference. Lookup failures degrade to an inactive
// status rather than an error: the directory should render even when a single
// user read fails.
func (s *Service) UserMFAStatus(ctx context.Context, username, poolMode string) MFAStatus {
	if poolMode == cognito.MFAModeOn {
		return MFAStatus{Active: true, TOTPEnabled: true}
	}

	user, err := s.idp.GetUser(ctx, username)
	if err != nil {
		slog.Warn("Failed to read MFA status", "username", username, "err", err)
		return MFAStatus{}
	}

	var status MFAStatus
	for _, method := range user.MFAMethods {
		switch method {
		case cognito.MFAMethodSoftwareToken:
			status.TOTPEnabled = true
		case cognito.MFAMethodSMS:
			status.SMSEnabled = true
		}
	}
	// Accounts configured before MFA preferences existed carry legacy
	// MFAOptions entries instead of a preference list.
	status.Active = status.TOTPEnabled || status.SMSEnabled || user.MFAOptionsCount > 0
	return status
}

// BeginMFAReset clears a user's MFA preference and starts a fresh
// software-token enrollment on their behalf: disable both methods, set a
// known permanent password, authenticate for an access token, and associate a
// new software token. The returned setup carries the secret to provision and
// the token needed by CompleteMFAReset.
func (s *Service) BeginMFAReset(ctx context.Context, username, tempPassword string) (*cognito.SoftwareTokenSetup, error) {
	err := s.idp.SetUserMFAPreference(ctx, username, cognito.MFAPreference{
		SoftwareToken: &cognito.MFAMethodSetting{Enabled: false},
		SMS:           &cognito.MFAMethodSetting{Enabled: false},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear MFA preference: %w", err)
	}

	if err := s.idp.SetPassword(ctx, username, tempPassword, true); err != nil {
		return nil, fmt.Errorf("failed to set reset password: %w", err)
	}

	auth, err := s.idp.Authenticate(ctx, username, tempPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate for MFA reset: %w", err)
	}
	if auth.AccessToken == "" {
		return nil, ChallengeMismatchError{Got: auth.ChallengeName}
	}

	setup, err := s.idp.AssociateSoftwareToken(ctx, auth.AccessToken, "")
	if err != nil {
		return nil, fmt.Errorf("failed to start software token enrollment: %w", err)
	}

	slog.Info("MFA reset started", "username", username)
	return setup, nil
}

// CompleteMFAReset verifies the first TOTP code of a reset enrollment, marks
// software-token MFA enabled and preferred, and pushes the account back into
// the mandatory password-change flow so the next login runs under the new
// enrollment.
func (s *Service) CompleteMFAReset(ctx context.Context, accessToken, code, username string) error {
	if err := s.idp.VerifySoftwareToken(ctx, accessToken, "", code); err != nil {
		return fmt.Errorf("failed to verify software token: %w", err)
	}

	err := s.idp.SetUserMFAPreference(ctx, username, cognito.MFAPreference{
		SoftwareToken: &cognito.MFAMethodSetting{Enabled: true, Preferred: true},
	})
	if err != nil {
		return fmt.Errorf("failed to enable MFA preference: %w", err)
	}

	if err := s.idp.ForceChangePasswordStatus(ctx, username); err != nil {
		return fmt.Errorf("failed to force password change after MFA reset: %w", err)
	}

	slog.Info("MFA reset completed", "username", username)
	return nil
}
