package aws

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"hearly/transcription-api/apperr"
	"hearly/transcription-api/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/google/uuid"
)

// Cognito wraps the identity provider. Signup, confirmation and login
// are pass-throughs; this service never stores credentials itself.
type Cognito struct {
	C            *cognitoidentityprovider.Client
	ClientID     string
	ClientSecret string
}

func NewCognito(cfg aws.Config, clientID, clientSecret string) *Cognito {
	return &Cognito{
		C:            cognitoidentityprovider.NewFromConfig(cfg),
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

func (c *Cognito) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(c.ClientSecret))
	mac.Write([]byte(username + c.ClientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type SignupResult struct {
	Username string
	UserSub  string
}

// SignUp registers the user under a generated username so that emails
// never become login identifiers.
func (c *Cognito) SignUp(ctx context.Context, u *model.UserSignup) (*SignupResult, error) {
	username := "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	attrs := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(u.Email)},
		{Name: aws.String("phone_number"), Value: aws.String(u.PhoneNumber)},
	}

	if u.FullName != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("name"), Value: aws.String(u.FullName)})
	}

	// birthdate is mandatory in the pool schema
	birthdate := u.Birthdate
	if birthdate == "" {
		birthdate = "1900-01-01"
	}
	attrs = append(attrs, types.AttributeType{Name: aws.String("birthdate"), Value: aws.String(birthdate)})

	out, err := c.C.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:       aws.String(c.ClientID),
		Username:       aws.String(username),
		Password:       aws.String(u.Password),
		SecretHash:     aws.String(c.secretHash(username)),
		UserAttributes: attrs,
	})
	if err != nil {
		return nil, classifyCognito(err, "failed to sign up user")
	}

	return &SignupResult{
		Username: username,
		UserSub:  aws.ToString(out.UserSub),
	}, nil
}

func (c *Cognito) ConfirmSignUp(ctx context.Context, username, code string) error {
	_, err := c.C.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.ClientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		SecretHash:       aws.String(c.secretHash(username)),
	})
	if err != nil {
		return classifyCognito(err, "failed to verify account")
	}
	return nil
}

type TokenSet struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (c *Cognito) SignIn(ctx context.Context, username, password string) (*TokenSet, error) {
	out, err := c.C.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		ClientId: aws.String(c.ClientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME":    username,
			"PASSWORD":    password,
			"SECRET_HASH": c.secretHash(username),
		},
	})
	if err != nil {
		return nil, classifyCognito(err, "failed to sign in")
	}

	res := out.AuthenticationResult
	if res == nil {
		return nil, apperr.New(apperr.KindService, "identity provider returned no tokens")
	}

	return &TokenSet{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
		TokenType:    aws.ToString(res.TokenType),
	}, nil
}

func classifyCognito(err error, msg string) error {
	var (
		exists      *types.UsernameExistsException
		badParam    *types.InvalidParameterException
		badPassword *types.InvalidPasswordException
		codeWrong   *types.CodeMismatchException
		codeExpired *types.ExpiredCodeException
		noUser      *types.UserNotFoundException
		notAuthed   *types.NotAuthorizedException
	)

	switch {
	case errors.As(err, &exists):
		return apperr.Wrap(apperr.KindConflict, "Username or email already registered", err)
	case errors.As(err, &badPassword):
		return apperr.Wrap(apperr.KindValidation, "Password does not meet requirements", err)
	case errors.As(err, &badParam):
		return apperr.Wrap(apperr.KindValidation, "Invalid signup parameters", err)
	case errors.As(err, &codeWrong):
		return apperr.Wrap(apperr.KindValidation, "Invalid verification code", err)
	case errors.As(err, &codeExpired):
		return apperr.Wrap(apperr.KindValidation, "Verification code has expired", err)
	case errors.As(err, &noUser):
		return apperr.Wrap(apperr.KindNotFound, "User not found", err)
	case errors.As(err, &notAuthed):
		return apperr.Wrap(apperr.KindUnauthorized, "Invalid username or password", err)
	}

	return apperr.FromAPI(err, msg)
}
