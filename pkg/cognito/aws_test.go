package cognito

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCognitoAPI implements CognitoAPI with overridable function fields. Unset
// methods return empty outputs.
type stubCognitoAPI struct {
	adminCreateUser             func(*cognitoidentityprovider.AdminCreateUserInput) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	adminGetUser                func(*cognitoidentityprovider.AdminGetUserInput) (*cognitoidentityprovider.AdminGetUserOutput, error)
	adminDeleteUser             func(*cognitoidentityprovider.AdminDeleteUserInput) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
	adminInitiateAuth           func(*cognitoidentityprovider.AdminInitiateAuthInput) (*cognitoidentityprovider.AdminInitiateAuthOutput, error)
	adminRespondToAuthChallenge func(*cognitoidentityprovider.AdminRespondToAuthChallengeInput) (*cognitoidentityprovider.AdminRespondToAuthChallengeOutput, error)
	listUsers                   func(*cognitoidentityprovider.ListUsersInput) (*cognitoidentityprovider.ListUsersOutput, error)
	getUserPoolMfaConfig        func(*cognitoidentityprovider.GetUserPoolMfaConfigInput) (*cognitoidentityprovider.GetUserPoolMfaConfigOutput, error)
	setUserPoolMfaConfig        func(*cognitoidentityprovider.SetUserPoolMfaConfigInput) (*cognitoidentityprovider.SetUserPoolMfaConfigOutput, error)
	verifySoftwareToken         func(*cognitoidentityprovider.VerifySoftwareTokenInput) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error)
	adminSetUserPassword        func(*cognitoidentityprovider.AdminSetUserPasswordInput) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error)
}

func (s *stubCognitoAPI) AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
	if s.adminCreateUser != nil {
		return s.adminCreateUser(params)
	}
	return &cognitoidentityprovider.AdminCreateUserOutput{}, nil
}

func (s *stubCognitoAPI) AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error) {
	if s.adminGetUser != nil {
		return s.adminGetUser(params)
	}
	return &cognitoidentityprovider.AdminGetUserOutput{}, nil
}

func (s *stubCognitoAPI) AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error) {
	if s.adminDeleteUser != nil {
		return s.adminDeleteUser(params)
	}
	return &cognitoidentityprovider.AdminDeleteUserOutput{}, nil
}

func (s *stubCognitoAPI) AdminEnableUser(ctx context.Context, params *cognitoidentityprovider.AdminEnableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error) {
	return &cognitoidentityprovider.AdminEnableUserOutput{}, nil
}

func (s *stubCognitoAPI) AdminDisableUser(ctx context.Context, params *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error) {
	return &cognitoidentityprovider.AdminDisableUserOutput{}, nil
}

func (s *stubCognitoAPI) AdminSetUserPassword(ctx context.Context, params *cognitoidentityprovider.AdminSetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error) {
	if s.adminSetUserPassword != nil {
		return s.adminSetUserPassword(params)
	}
	return &cognitoidentityprovider.AdminSetUserPasswordOutput{}, nil
}

func (s *stubCognitoAPI) AdminResetUserPassword(ctx context.Context, params *cognitoidentityprovider.AdminResetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminResetUserPasswordOutput, error) {
	return &cognitoidentityprovider.AdminResetUserPasswordOutput{}, nil
}

func (s *stubCognitoAPI) AdminInitiateAuth(ctx context.Context, params *cognitoidentityprovider.AdminInitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminInitiateAuthOutput, error) {
	if s.adminInitiateAuth != nil {
		return s.adminInitiateAuth(params)
	}
	return &cognitoidentityprovider.AdminInitiateAuthOutput{}, nil
}

func (s *stubCognitoAPI) AdminRespondToAuthChallenge(ctx context.Context, params *cognitoidentityprovider.AdminRespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminRespondToAuthChallengeOutput, error) {
	if s.adminRespondToAuthChallenge != nil {
		return s.adminRespondToAuthChallenge(params)
	}
	return &cognitoidentityprovider.AdminRespondToAuthChallengeOutput{}, nil
}

func (s *stubCognitoAPI) AdminSetUserMFAPreference(ctx context.Context, params *cognitoidentityprovider.AdminSetUserMFAPreferenceInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserMFAPreferenceOutput, error) {
	return &cognitoidentityprovider.AdminSetUserMFAPreferenceOutput{}, nil
}

func (s *stubCognitoAPI) AssociateSoftwareToken(ctx context.Context, params *cognitoidentityprovider.AssociateSoftwareTokenInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AssociateSoftwareTokenOutput, error) {
	return &cognitoidentityprovider.AssociateSoftwareTokenOutput{}, nil
}

func (s *stubCognitoAPI) VerifySoftwareToken(ctx context.Context, params *cognitoidentityprovider.VerifySoftwareTokenInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error) {
	if s.verifySoftwareToken != nil {
		return s.verifySoftwareToken(params)
	}
	return &cognitoidentityprovider.VerifySoftwareTokenOutput{
		Status: types.VerifySoftwareTokenResponseTypeSuccess,
	}, nil
}

func (s *stubCognitoAPI) ListUsers(ctx context.Context, params *cognitoidentityprovider.ListUsersInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUsersOutput, error) {
	if s.listUsers != nil {
		return s.listUsers(params)
	}
	return &cognitoidentityprovider.ListUsersOutput{}, nil
}

func (s *stubCognitoAPI) GetUserPoolMfaConfig(ctx context.Context, params *cognitoidentityprovider.GetUserPoolMfaConfigInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserPoolMfaConfigOutput, error) {
	if s.getUserPoolMfaConfig != nil {
		return s.getUserPoolMfaConfig(params)
	}
	return &cognitoidentityprovider.GetUserPoolMfaConfigOutput{}, nil
}

func (s *stubCognitoAPI) SetUserPoolMfaConfig(ctx context.Context, params *cognitoidentityprovider.SetUserPoolMfaConfigInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SetUserPoolMfaConfigOutput, error) {
	if s.setUserPoolMfaConfig != nil {
		return s.setUserPoolMfaConfig(params)
	}
	return &cognitoidentityprovider.SetUserPoolMfaConfigOutput{}, nil
}

var _ CognitoAPI = (*stubCognitoAPI)(nil)

func testClient(api CognitoAPI) *AWSClient {
	return NewAWSClientWithAPI(api, Config{
		UserPoolID:   "pool-1",
		ClientID:     "client123",
		ClientSecret: "app-client-secret",
	})
}

func TestAWSClient_CreateUser(t *testing.T) {
	t.Run("MapsAttributesAndSuppressesNotification", func(t *testing.T) {
		var got *cognitoidentityprovider.AdminCreateUserInput
		stub := &stubCognitoAPI{
			adminCreateUser: func(input *cognitoidentityprovider.AdminCreateUserInput) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
				got = input
				return &cognitoidentityprovider.AdminCreateUserOutput{
					User: &types.UserType{
						Username:   aws.String("jane@example.com"),
						Enabled:    true,
						UserStatus: types.UserStatusTypeForceChangePassword,
					},
				}, nil
			},
		}

		user, err := testClient(stub).CreateUser(context.Background(), CreateUserParams{
			Email:        "jane@example.com",
			Name:         "Jane Doe",
			Company:      "Acme",
			TempPassword: "Temp123!",
		})
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, "pool-1", *got.UserPoolId)
		assert.Equal(t, "jane@example.com", *got.Username)
		assert.Equal(t, "Temp123!", *got.TemporaryPassword)
		assert.Equal(t, types.MessageActionTypeSuppress, got.MessageAction)

		attrs := map[string]string{}
		for _, attr := range got.UserAttributes {
			attrs[*attr.Name] = *attr.Value
		}
		assert.Equal(t, "jane@example.com", attrs["email"])
		assert.Equal(t, "true", attrs["email_verified"])
		assert.Equal(t, "Jane Doe", attrs["name"])
		assert.Equal(t, "Acme", attrs["profile"])

		assert.Equal(t, "jane@example.com", user.Username)
		assert.Equal(t, "Acme", user.Company)
		assert.Equal(t, StatusForceChangePassword, user.Status)
	})

	t.Run("OmitsEmptyOptionalAttributes", func(t *testing.T) {
		var got *cognitoidentityprovider.AdminCreateUserInput
		stub := &stubCognitoAPI{
			adminCreateUser: func(input *cognitoidentityprovider.AdminCreateUserInput) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
				got = input
				return &cognitoidentityprovider.AdminCreateUserOutput{}, nil
			},
		}

		_, err := testClient(stub).CreateUser(context.Background(), CreateUserParams{
			Email:        "jane@example.com",
			TempPassword: "Temp123!",
		})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.UserAttributes, 2)
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		_, err := testClient(&stubCognitoAPI{}).CreateUser(context.Background(), CreateUserParams{})
		assert.Error(t, err)
	})
}

func TestAWSClient_GetUser(t *testing.T) {
	t.Run("MapsProfileAttributeToCompany", func(t *testing.T) {
		stub := &stubCognitoAPI{
			adminGetUser: func(input *cognitoidentityprovider.AdminGetUserInput) (*cognitoidentityprovider.AdminGetUserOutput, error) {
				assert.Equal(t, "jane@example.com", *input.Username)
				return &cognitoidentityprovider.AdminGetUserOutput{
					Username:   aws.String("jane@example.com"),
					Enabled:    true,
					UserStatus: types.UserStatusTypeConfirmed,
					UserAttributes: []types.AttributeType{
						{Name: aws.String("email"), Value: aws.String("jane@example.com")},
						{Name: aws.String("name"), Value: aws.String("Jane Doe")},
						{Name: aws.String("profile"), Value: aws.String("Acme")},
					},
					UserMFASettingList:  []string{MFAMethodSoftwareToken},
					PreferredMfaSetting: aws.String(MFAMethodSoftwareToken),
				}, nil
			},
		}

		user, err := testClient(stub).GetUser(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", user.Name)
		assert.Equal(t, "Acme", user.Company)
		assert.Equal(t, StatusConfirmed, user.Status)
		assert.Equal(t, []string{MFAMethodSoftwareToken}, user.MFAMethods)
		assert.Equal(t, MFAMethodSoftwareToken, user.PreferredMFA)
	})

	t.Run("CountsLegacyMFAOptions", func(t *testing.T) {
		stub := &stubCognitoAPI{
			adminGetUser: func(input *cognitoidentityprovider.AdminGetUserInput) (*cognitoidentityprovider.AdminGetUserOutput, error) {
				return &cognitoidentityprovider.AdminGetUserOutput{
					Username:   aws.String("jane@example.com"),
					Enabled:    true,
					UserStatus: types.UserStatusTypeConfirmed,
					MFAOptions: []types.MFAOptionType{
						{DeliveryMedium: types.DeliveryMediumTypeSms, AttributeName: aws.String("phone_number")},
					},
				}, nil
			},
		}

		user, err := testClient(stub).GetUser(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Empty(t, user.MFAMethods)
		assert.Equal(t, 1, user.MFAOptionsCount)
	})

	t.Run("TranslatesUserNotFound", func(t *testing.T) {
		stub := &stubCognitoAPI{
			adminGetUser: func(input *cognitoidentityprovider.AdminGetUserInput) (*cognitoidentityprovider.AdminGetUserOutput, error) {
				return nil, &types.UserNotFoundException{Message: aws.String("User does not exist")}
			},
		}

		_, err := testClient(stub).GetUser(context.Background(), "missing@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAWSClient_Authenticate(t *testing.T) {
	t.Run("SendsSecretHash", func(t *testing.T) {
		var got *cognitoidentityprovider.AdminInitiateAuthInput
		stub := &stubCognitoAPI{
			adminInitiateAuth: func(input *cognitoidentityprovider.AdminInitiateAuthInput) (*cognitoidentityprovider.AdminInitiateAuthOutput, error) {
				got = input
				return &cognitoidentityprovider.AdminInitiateAuthOutput{
					ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
					Session:       aws.String("session-abc"),
				}, nil
			},
		}

		result, err := testClient(stub).Authenticate(context.Background(), "jane@example.com", "Temp123!")
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, types.AuthFlowTypeAdminUserPasswordAuth, got.AuthFlow)
		assert.Equal(t, "jane@example.com", got.AuthParameters["USERNAME"])
		assert.Equal(t, "Temp123!", got.AuthParameters["PASSWORD"])
		assert.Equal(t,
			SecretHash("jane@example.com", "client123", "app-client-secret"),
			got.AuthParameters["SECRET_HASH"])

		assert.Equal(t, ChallengeNewPasswordRequired, result.ChallengeName)
		assert.Equal(t, "session-abc", result.Session)
		assert.True(t, result.HasChallenge())
	})

	t.Run("TranslatesNotAuthorized", func(t *testing.T) {
		stub := &stubCognitoAPI{
			adminInitiateAuth: func(input *cognitoidentityprovider.AdminInitiateAuthInput) (*cognitoidentityprovider.AdminInitiateAuthOutput, error) {
				return nil, &types.NotAuthorizedException{Message: aws.String("Incorrect username or password")}
			},
		}

		_, err := testClient(stub).Authenticate(context.Background(), "jane@example.com", "wrong")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("CompletedAuthCarriesAccessToken", func(t *testing.T) {
		stub := &stubCognitoAPI{
			adminInitiateAuth: func(input *cognitoidentityprovider.AdminInitiateAuthInput) (*cognitoidentityprovider.AdminInitiateAuthOutput, error) {
				return &cognitoidentityprovider.AdminInitiateAuthOutput{
					AuthenticationResult: &types.AuthenticationResultType{
						AccessToken: aws.String("access-token-1"),
					},
				}, nil
			},
		}

		result, err := testClient(stub).Authenticate(context.Background(), "jane@example.com", "Perm123!")
		require.NoError(t, err)
		assert.False(t, result.HasChallenge())
		assert.Equal(t, "access-token-1", result.AccessToken)
	})
}

func TestAWSClient_SetPassword(t *testing.T) {
	var got *cognitoidentityprovider.AdminSetUserPasswordInput
	stub := &stubCognitoAPI{
		adminSetUserPassword: func(input *cognitoidentityprovider.AdminSetUserPasswordInput) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error) {
			got = input
			return &cognitoidentityprovider.AdminSetUserPasswordOutput{}, nil
		},
	}

	err := testClient(stub).SetPassword(context.Background(), "jane@example.com", "Temp123!", false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jane@example.com", *got.Username)
	assert.Equal(t, "Temp123!", *got.Password)
	assert.False(t, got.Permanent)
}

func TestAWSClient_ListUsers(t *testing.T) {
	t.Run("NoFilter", func(t *testing.T) {
		var got *cognitoidentityprovider.ListUsersInput
		stub := &stubCognitoAPI{
			listUsers: func(input *cognitoidentityprovider.ListUsersInput) (*cognitoidentityprovider.ListUsersOutput, error) {
				got = input
				return &cognitoidentityprovider.ListUsersOutput{
					Users: []types.UserType{
						{
							Username:   aws.String("jane@example.com"),
							Enabled:    true,
							UserStatus: types.UserStatusTypeConfirmed,
							Attributes: []types.AttributeType{
								{Name: aws.String("email"), Value: aws.String("jane@example.com")},
							},
						},
					},
				}, nil
			},
		}

		users, err := testClient(stub).ListUsers(context.Background(), "")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.Filter)
		require.Len(t, users, 1)
		assert.Equal(t, "jane@example.com", users[0].Email)
	})

	t.Run("PassesFilter", func(t *testing.T) {
		var got *cognitoidentityprovider.ListUsersInput
		stub := &stubCognitoAPI{
			listUsers: func(input *cognitoidentityprovider.ListUsersInput) (*cognitoidentityprovider.ListUsersOutput, error) {
				got = input
				return &cognitoidentityprovider.ListUsersOutput{}, nil
			},
		}

		_, err := testClient(stub).ListUsers(context.Background(), `email = "jane@example.com"`)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.Filter)
		assert.Equal(t, `email = "jane@example.com"`, *got.Filter)
	})
}

func TestAWSClient_PoolMFAConfig(t *testing.T) {
	t.Run("Read", func(t *testing.T) {
		stub := &stubCognitoAPI{
			getUserPoolMfaConfig: func(input *cognitoidentityprovider.GetUserPoolMfaConfigInput) (*cognitoidentityprovider.GetUserPoolMfaConfigOutput, error) {
				return &cognitoidentityprovider.GetUserPoolMfaConfigOutput{
					MfaConfiguration: types.UserPoolMfaTypeOn,
					SoftwareTokenMfaConfiguration: &types.SoftwareTokenMfaConfigType{
						Enabled: true,
					},
				}, nil
			},
		}

		cfg, err := testClient(stub).PoolMFAConfig(context.Background())
		require.NoError(t, err)
		assert.Equal(t, MFAModeOn, cfg.Mode)
		assert.Contains(t, cfg.EnabledMethods, MFAMethodSoftwareToken)
	})

	t.Run("WriteEnablesSoftwareToken", func(t *testing.T) {
		var got *cognitoidentityprovider.SetUserPoolMfaConfigInput
		stub := &stubCognitoAPI{
			setUserPoolMfaConfig: func(input *cognitoidentityprovider.SetUserPoolMfaConfigInput) (*cognitoidentityprovider.SetUserPoolMfaConfigOutput, error) {
				got = input
				return &cognitoidentityprovider.SetUserPoolMfaConfigOutput{}, nil
			},
		}

		err := testClient(stub).SetPoolMFAConfig(context.Background(), MFAModeOptional)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, types.UserPoolMfaTypeOptional, got.MfaConfiguration)
		require.NotNil(t, got.SoftwareTokenMfaConfiguration)
		assert.True(t, got.SoftwareTokenMfaConfiguration.Enabled)
	})
}

func TestAWSClient_VerifySoftwareToken(t *testing.T) {
	t.Run("NonSuccessStatusIsError", func(t *testing.T) {
		stub := &stubCognitoAPI{
			verifySoftwareToken: func(input *cognitoidentityprovider.VerifySoftwareTokenInput) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error) {
				return &cognitoidentityprovider.VerifySoftwareTokenOutput{
					Status: types.VerifySoftwareTokenResponseTypeError,
				}, nil
			},
		}

		err := testClient(stub).VerifySoftwareToken(context.Background(), "access-token-1", "", "123456")
		assert.Error(t, err)
	})

	t.Run("Success", func(t *testing.T) {
		var got *cognitoidentityprovider.VerifySoftwareTokenInput
		stub := &stubCognitoAPI{
			verifySoftwareToken: func(input *cognitoidentityprovider.VerifySoftwareTokenInput) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error) {
				got = input
				return &cognitoidentityprovider.VerifySoftwareTokenOutput{
					Status: types.VerifySoftwareTokenResponseTypeSuccess,
				}, nil
			},
		}

		err := testClient(stub).VerifySoftwareToken(context.Background(), "access-token-1", "", "123456")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "123456", *got.UserCode)
		require.NotNil(t, got.AccessToken)
		assert.Equal(t, "access-token-1", *got.AccessToken)
		assert.Nil(t, got.Session)
	})
}

func TestTranslateErr(t *testing.T) {
	assert.ErrorIs(t, translateErr(&types.UserNotFoundException{}), ErrUserNotFound)
	assert.ErrorIs(t, translateErr(&types.NotAuthorizedException{}), ErrNotAuthorized)

	plain := errors.New("throttled")
	assert.Equal(t, plain, translateErr(plain))
}
