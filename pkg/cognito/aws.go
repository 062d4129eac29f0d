package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// Config identifies the user pool and app client the console manages.
type Config struct {
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

// AWSClient implements the Client interface against AWS Cognito.
type AWSClient struct {
	cognito CognitoAPI
	cfg     Config
}

// NewAWSClient creates a new Cognito client using the default AWS credential
// chain.
func NewAWSClient(ctx context.Context, cfg Config) (*AWSClient, error) {
	if cfg.UserPoolID == "" {
		return nil, fmt.Errorf("user pool ID cannot be empty")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID cannot be empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSClient{
		cognito: cognitoidentityprovider.NewFromConfig(awsCfg),
		cfg:     cfg,
	}, nil
}

// NewAWSClientWithAPI wires an explicit API implementation, used by tests.
func NewAWSClientWithAPI(api CognitoAPI, cfg Config) *AWSClient {
	return &AWSClient{cognito: api, cfg: cfg}
}

// ListUsers lists users in the pool, optionally narrowed by a Cognito filter
// expression such as `email = "a@b.com"`.
func (c *AWSClient) ListUsers(ctx context.Context, filter string) ([]User, error) {
	input := &cognitoidentityprovider.ListUsersInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Limit:      aws.Int32(60),
	}
	if filter != "" {
		input.Filter = aws.String(filter)
	}

	output, err := c.cognito.ListUsers(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]User, 0, len(output.Users))
	for _, u := range output.Users {
		if u.Username == nil {
			continue
		}
		user := User{
			Username:        *u.Username,
			Enabled:         u.Enabled,
			Status:          string(u.UserStatus),
			MFAOptionsCount: len(u.MFAOptions),
		}
		if u.UserCreateDate != nil {
			user.CreatedAt = *u.UserCreateDate
		}
		applyAttributes(&user, u.Attributes)
		users = append(users, user)
	}
	return users, nil
}

// GetUser retrieves a single user, including MFA settings.
func (c *AWSClient) GetUser(ctx context.Context, username string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	output, err := c.cognito.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, translateErr(err))
	}

	user := &User{
		Username:        username,
		Enabled:         output.Enabled,
		Status:          string(output.UserStatus),
		MFAMethods:      output.UserMFASettingList,
		MFAOptionsCount: len(output.MFAOptions),
	}
	if output.UserCreateDate != nil {
		user.CreatedAt = *output.UserCreateDate
	}
	if output.PreferredMfaSetting != nil {
		user.PreferredMFA = *output.PreferredMfaSetting
	}
	applyAttributes(user, output.UserAttributes)
	return user, nil
}

// CreateUser creates a new user with the email as username and a temporary
// password. The welcome notification is always suppressed: the console hands
// credentials to the operator out of band.
func (c *AWSClient) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	if params.Email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	attributes := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(params.Email)},
		{Name: aws.String("email_verified"), Value: aws.String("true")},
	}
	if params.Name != "" {
		attributes = append(attributes, types.AttributeType{
			Name: aws.String("name"), Value: aws.String(params.Name),
		})
	}
	if params.Company != "" {
		attributes = append(attributes, types.AttributeType{
			Name: aws.String("profile"), Value: aws.String(params.Company),
		})
	}

	resp, err := c.cognito.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:        aws.String(c.cfg.UserPoolID),
		Username:          aws.String(params.Email),
		UserAttributes:    attributes,
		TemporaryPassword: aws.String(params.TempPassword),
		MessageAction:     types.MessageActionTypeSuppress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", params.Email, err)
	}

	created := &User{
		Username: params.Email,
		Email:    params.Email,
		Name:     params.Name,
		Company:  params.Company,
		Enabled:  true,
		Status:   StatusForceChangePassword,
	}
	if resp.User != nil {
		created.Enabled = resp.User.Enabled
		created.Status = string(resp.User.UserStatus)
		if resp.User.UserCreateDate != nil {
			created.CreatedAt = *resp.User.UserCreateDate
		}
	}
	return created, nil
}

// DeleteUser removes a user from the pool.
func (c *AWSClient) DeleteUser(ctx context.Context, username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	_, err := c.cognito.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", username, translateErr(err))
	}
	return nil
}

// EnableUser enables a disabled user.
func (c *AWSClient) EnableUser(ctx context.Context, username string) error {
	_, err := c.cognito.AdminEnableUser(ctx, &cognitoidentityprovider.AdminEnableUserInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("failed to enable user %s: %w", username, translateErr(err))
	}
	return nil
}

// DisableUser disables a user without touching password or MFA state.
func (c *AWSClient) DisableUser(ctx context.Context, username string) error {
	_, err := c.cognito.AdminDisableUser(ctx, &cognitoidentityprovider.AdminDisableUserInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("failed to disable user %s: %w", username, translateErr(err))
	}
	return nil
}

// SetPassword sets a user's password. permanent=false leaves the account in
// FORCE_CHANGE_PASSWORD status.
func (c *AWSClient) SetPassword(ctx context.Context, username, password string, permanent bool) error {
	_, err := c.cognito.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  permanent,
	})
	if err != nil {
		return fmt.Errorf("failed to set password for user %s: %w", username, translateErr(err))
	}
	return nil
}

// ForceChangePasswordStatus resets the user's credential state so the next
// login runs the mandatory password-change challenge.
func (c *AWSClient) ForceChangePasswordStatus(ctx context.Context, username string) error {
	_, err := c.cognito.AdminResetUserPassword(ctx, &cognitoidentityprovider.AdminResetUserPasswordInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("failed to reset password state for user %s: %w", username, translateErr(err))
	}
	return nil
}

// Authenticate runs an admin-initiated password authentication with the
// app-client secret hash.
func (c *AWSClient) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	output, err := c.cognito.AdminInitiateAuth(ctx, &cognitoidentityprovider.AdminInitiateAuthInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		ClientId:   aws.String(c.cfg.ClientID),
		AuthFlow:   types.AuthFlowTypeAdminUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME":    username,
			"PASSWORD":    password,
			"SECRET_HASH": SecretHash(username, c.cfg.ClientID, c.cfg.ClientSecret),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user %s: %w", username, translateErr(err))
	}
	return authResult(string(output.ChallengeName), output.Session, output.AuthenticationResult), nil
}

// RespondToNewPasswordChallenge answers a NEW_PASSWORD_REQUIRED challenge,
// making newPassword the account's permanent password.
func (c *AWSClient) RespondToNewPasswordChallenge(ctx context.Context, username, newPassword, session string) (*AuthResult, error) {
	output, err := c.cognito.AdminRespondToAuthChallenge(ctx, &cognitoidentityprovider.AdminRespondToAuthChallengeInput{
		UserPoolId:    aws.String(c.cfg.UserPoolID),
		ClientId:      aws.String(c.cfg.ClientID),
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
		ChallengeResponses: map[string]string{
			"USERNAME":     username,
			"NEW_PASSWORD": newPassword,
			"SECRET_HASH":  SecretHash(username, c.cfg.ClientID, c.cfg.ClientSecret),
		},
		Session: aws.String(session),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to respond to password challenge for user %s: %w", username, translateErr(err))
	}
	return authResult(string(output.ChallengeName), output.Session, output.AuthenticationResult), nil
}

// SetUserMFAPreference writes a per-user MFA preference. Nil method settings
// are not sent.
func (c *AWSClient) SetUserMFAPreference(ctx context.Context, username string, pref MFAPreference) error {
	input := &cognitoidentityprovider.AdminSetUserMFAPreferenceInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
		Username:   aws.String(username),
	}
	if pref.SoftwareToken != nil {
		input.SoftwareTokenMfaSettings = &types.SoftwareTokenMfaSettingsType{
			Enabled:      pref.SoftwareToken.Enabled,
			PreferredMfa: pref.SoftwareToken.Preferred,
		}
	}
	if pref.SMS != nil {
		input.SMSMfaSettings = &types.SMSMfaSettingsType{
			Enabled:      pref.SMS.Enabled,
			PreferredMfa: pref.SMS.Preferred,
		}
	}

	_, err := c.cognito.AdminSetUserMFAPreference(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to set MFA preference for user %s: %w", username, translateErr(err))
	}
	return nil
}

// PoolMFAConfig reads the pool-wide MFA policy straight from the provider.
func (c *AWSClient) PoolMFAConfig(ctx context.Context) (*PoolMFAConfig, error) {
	output, err := c.cognito.GetUserPoolMfaConfig(ctx, &cognitoidentityprovider.GetUserPoolMfaConfigInput{
		UserPoolId: aws.String(c.cfg.UserPoolID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pool MFA config: %w", err)
	}

	cfg := &PoolMFAConfig{Mode: string(output.MfaConfiguration)}
	if output.SoftwareTokenMfaConfiguration != nil && output.SoftwareTokenMfaConfiguration.Enabled {
		cfg.EnabledMethods = append(cfg.EnabledMethods, MFAMethodSoftwareToken)
	}
	if output.SmsMfaConfiguration != nil {
		cfg.EnabledMethods = append(cfg.EnabledMethods, MFAMethodSMS)
	}
	return cfg, nil
}

// SetPoolMFAConfig writes the pool-wide MFA mode. The software-token method is
// always enabled alongside ON/OPTIONAL, since per-user software-token MFA
// requires it at the pool level.
func (c *AWSClient) SetPoolMFAConfig(ctx context.Context, mode string) error {
	_, err := c.cognito.SetUserPoolMfaConfig(ctx, &cognitoidentityprovider.SetUserPoolMfaConfigInput{
		UserPoolId:       aws.String(c.cfg.UserPoolID),
		MfaConfiguration: types.UserPoolMfaType(mode),
		SoftwareTokenMfaConfiguration: &types.SoftwareTokenMfaConfigType{
			Enabled: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set pool MFA config to %s: %w", mode, err)
	}
	return nil
}

// AssociateSoftwareToken starts a software-token enrollment. Exactly one of
// accessToken or session must be set, depending on how the user authenticated.
func (c *AWSClient) AssociateSoftwareToken(ctx context.Context, accessToken, session string) (*SoftwareTokenSetup, error) {
	input := &cognitoidentityprovider.AssociateSoftwareTokenInput{}
	if accessToken != "" {
		input.AccessToken = aws.String(accessToken)
	}
	if session != "" {
		input.Session = aws.String(session)
	}

	output, err := c.cognito.AssociateSoftwareToken(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to associate software token: %w", translateErr(err))
	}

	setup := &SoftwareTokenSetup{AccessToken: accessToken}
	if output.SecretCode != nil {
		setup.SecretCode = *output.SecretCode
	}
	if output.Session != nil {
		setup.Session = *output.Session
	}
	return setup, nil
}

// VerifySoftwareToken confirms a software-token enrollment with the first
// TOTP code.
func (c *AWSClient) VerifySoftwareToken(ctx context.Context, accessToken, session, code string) error {
	input := &cognitoidentityprovider.VerifySoftwareTokenInput{
		UserCode: aws.String(code),
	}
	if accessToken != "" {
		input.AccessToken = aws.String(accessToken)
	}
	if session != "" {
		input.Session = aws.String(session)
	}

	output, err := c.cognito.VerifySoftwareToken(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to verify software token: %w", translateErr(err))
	}
	if output.Status != types.VerifySoftwareTokenResponseTypeSuccess {
		return fmt.Errorf("software token verification returned status %s", output.Status)
	}
	return nil
}

// applyAttributes copies the console-relevant Cognito attributes onto a User.
func applyAttributes(user *User, attrs []types.AttributeType) {
	for _, attr := range attrs {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "email":
			user.Email = *attr.Value
		case "name":
			user.Name = *attr.Value
		case "profile":
			user.Company = *attr.Value
		}
	}
}

// authResult converts an SDK auth response into the domain result.
func authResult(challengeName string, session *string, auth *types.AuthenticationResultType) *AuthResult {
	result := &AuthResult{ChallengeName: challengeName}
	if session != nil {
		result.Session = *session
	}
	if auth != nil && auth.AccessToken != nil {
		result.AccessToken = *auth.AccessToken
	}
	return result
}

// translateErr maps provider error types onto the console's taxonomy, keeping
// the original message.
func translateErr(err error) error {
	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, err.Error())
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, err.Error())
	}
	return err
}
