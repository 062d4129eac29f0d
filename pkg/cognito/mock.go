package cognito

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements the Client interface against an in-memory user store,
// for testing. Pool MFA config writes can be made eventually-consistent via
// ConvergeAfterReads, mirroring the provider's behavior.
type MockClient struct {
	mu    sync.Mutex
	users map[string]*mockUser

	poolMode       string
	enabledMethods []string
	pendingMode    string
	pendingReads   int

	// ConvergeAfterReads delays visibility of a pool MFA config write by the
	// given number of reads. Zero means writes are immediately visible.
	ConvergeAfterReads int
	// NeverConverge makes pool MFA config writes never visible to reads.
	NeverConverge bool

	// Failure hooks.
	CreateErr error
	DeleteErr error
	VerifyErr error

	// Ops records the mutating and pool-read calls in order, for asserting
	// call sequencing.
	Ops []string

	sessionSeq int
}

type mockUser struct {
	user     User
	password string
	// session is the outstanding challenge session, consumed by exactly one
	// respond call.
	session string
}

// NewMockClient creates a mock client with an empty pool in OFF mode.
func NewMockClient() *MockClient {
	return &MockClient{
		users:    make(map[string]*mockUser),
		poolMode: MFAModeOff,
	}
}

// AddUser seeds a user directly into the store.
func (m *MockClient) AddUser(user User, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := user
	m.users[user.Username] = &mockUser{user: u, password: password}
}

func (m *MockClient) record(op string) {
	m.Ops = append(m.Ops, op)
}

func (m *MockClient) ListUsers(ctx context.Context, filter string) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u.user)
	}
	return users, nil
}

func (m *MockClient) GetUser(ctx context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, exists := m.users[username]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	user := u.user
	return &user, nil
}

func (m *MockClient) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateUser:" + params.Email)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if _, exists := m.users[params.Email]; exists {
		return nil, fmt.Errorf("user %s already exists", params.Email)
	}

	user := User{
		Username: params.Email,
		Email:    params.Email,
		Name:     params.Name,
		Company:  params.Company,
		Enabled:  true,
		Status:   StatusForceChangePassword,
	}
	m.users[params.Email] = &mockUser{user: user, password: params.TempPassword}
	created := user
	return &created, nil
}

func (m *MockClient) DeleteUser(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteUser:" + username)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, exists := m.users[username]; !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	delete(m.users, username)
	return nil
}

func (m *MockClient) EnableUser(ctx context.Context, username string) error {
	return m.setEnabled(username, true)
}

func (m *MockClient) DisableUser(ctx context.Context, username string) error {
	return m.setEnabled(username, false)
}

func (m *MockClient) setEnabled(username string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, exists := m.users[username]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	u.user.Enabled = enabled
	return nil
}

func (m *MockClient) SetPassword(ctx context.Context, username, password string, permanent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("SetPassword:%s:permanent=%t", username, permanent))
	u, exists := m.users[username]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	u.password = password
	if permanent {
		u.user.Status = StatusConfirmed
	} else {
		u.user.Status = StatusForceChangePassword
	}
	return nil
}

func (m *MockClient) ForceChangePasswordStatus(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ForceChangePasswordStatus:" + username)
	u, exists := m.users[username]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	u.user.Status = StatusForceChangePassword
	return nil
}

func (m *MockClient) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, exists := m.users[username]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if u.password != password {
		return nil, fmt.Errorf("%w: incorrect username or password", ErrNotAuthorized)
	}

	if u.user.Status == StatusForceChangePassword {
		m.sessionSeq++
		u.session = fmt.Sprintf("session-%d", m.sessionSeq)
		return &AuthResult{
			ChallengeName: ChallengeNewPasswordRequired,
			Session:       u.session,
		}, nil
	}
	return &AuthResult{AccessToken: "access-" + username}, nil
}

func (m *MockClient) RespondToNewPasswordChallenge(ctx context.Context, username, newPassword, session string) (*AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, exists := m.users[username]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if u.session == "" || u.session != session {
		return nil, fmt.Errorf("%w: invalid session", ErrNotAuthorized)
	}
	u.session = ""
	u.password = newPassword
	u.user.Status = StatusConfirmed
	return &AuthResult{AccessToken: "access-" + username}, nil
}

func (m *MockClient) SetUserMFAPreference(ctx context.Context, username string, pref MFAPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetUserMFAPreference:" + username)
	u, exists := m.users[username]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	if pref.SoftwareToken != nil {
		u.user.MFAMethods = removeMethod(u.user.MFAMethods, MFAMethodSoftwareToken)
		if pref.SoftwareToken.Enabled {
			u.user.MFAMethods = append(u.user.MFAMethods, MFAMethodSoftwareToken)
			if pref.SoftwareToken.Preferred {
				u.user.PreferredMFA = MFAMethodSoftwareToken
			}
		} else if u.user.PreferredMFA == MFAMethodSoftwareToken {
			u.user.PreferredMFA = ""
		}
	}
	if pref.SMS != nil {
		u.user.MFAMethods = removeMethod(u.user.MFAMethods, MFAMethodSMS)
		if pref.SMS.Enabled {
			u.user.MFAMethods = append(u.user.MFAMethods, MFAMethodSMS)
			if pref.SMS.Preferred {
				u.user.PreferredMFA = MFAMethodSMS
			}
		} else if u.user.PreferredMFA == MFAMethodSMS {
			u.user.PreferredMFA = ""
		}
	}
	return nil
}

func (m *MockClient) PoolMFAConfig(ctx context.Context) (*PoolMFAConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PoolMFAConfig")

	if m.pendingMode != "" && !m.NeverConverge {
		if m.pendingReads > 0 {
			m.pendingReads--
		} else {
			m.poolMode = m.pendingMode
			m.pendingMode = ""
		}
	}

	return &PoolMFAConfig{
		Mode:           m.poolMode,
		EnabledMethods: append([]string(nil), m.enabledMethods...),
	}, nil
}

func (m *MockClient) SetPoolMFAConfig(ctx context.Context, mode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetPoolMFAConfig:" + mode)
	m.enabledMethods = []string{MFAMethodSoftwareToken}
	if m.ConvergeAfterReads > 0 || m.NeverConverge {
		m.pendingMode = mode
		m.pendingReads = m.ConvergeAfterReads
		return nil
	}
	m.poolMode = mode
	return nil
}

func (m *MockClient) AssociateSoftwareToken(ctx context.Context, accessToken, session string) (*SoftwareTokenSetup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AssociateSoftwareToken")
	if accessToken == "" && session == "" {
		return nil, fmt.Errorf("%w: missing access token or session", ErrNotAuthorized)
	}
	return &SoftwareTokenSetup{
		SecretCode:  "MOCKSECRETCODE234567",
		AccessToken: accessToken,
		Session:     session,
	}, nil
}

func (m *MockClient) VerifySoftwareToken(ctx context.Context, accessToken, session, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("VerifySoftwareToken")
	if m.VerifyErr != nil {
		return m.VerifyErr
	}
	return nil
}

// Mode returns the currently visible pool MFA mode without counting as a
// convergence read.
func (m *MockClient) Mode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poolMode
}

func removeMethod(methods []string, method string) []string {
	out := methods[:0]
	for _, mth := range methods {
		if mth != method {
			out = append(out, mth)
		}
	}
	return out
}

// Verify both implementations satisfy the Client interface.
var (
	_ Client = (*AWSClient)(nil)
	_ Client = (*MockClient)(nil)
)
