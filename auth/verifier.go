package auth

import (
	"context"
	"fmt"

	"hearly/transcription-api/apperr"

	oidc "github.com/coreos/go-oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Verifier checks bearer tokens against the identity provider's JWKS
// and extracts the username claim. With auth.allow_unverified set the
// signature check is skipped, which is only meant for local development
// against tokens you minted yourself.
type Verifier struct {
	idToken         *oidc.IDTokenVerifier
	allowUnverified bool
}

func NewVerifier(ctx context.Context) (*Verifier, error) {
	if viper.GetBool("auth.allow_unverified") {
		zap.L().Warn("Token signature verification is DISABLED, do not run like this in production")
		return &Verifier{allowUnverified: true}, nil
	}

	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s",
		viper.GetString("aws.region"),
		viper.GetString("cognito.user_pool_id"),
	)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to reach identity provider at %s, %w", issuer, err)
	}

	// Access tokens don't carry an aud matching the app client, so the
	// client ID check has to be skipped here
	return &Verifier{
		idToken: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

type usernameClaims struct {
	Username        string `json:"username"`
	CognitoUsername string `json:"cognito:username"`
}

func (c usernameClaims) pick() string {
	if c.Username != "" {
		return c.Username
	}
	return c.CognitoUsername
}

// Verify parses raw and returns the caller's Identity. Any parse,
// signature or missing-claim failure comes back as Unauthorized.
func (v *Verifier) Verify(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, apperr.New(apperr.KindUnauthorized, "Missing token")
	}

	if v.allowUnverified {
		return v.verifyClaimsOnly(raw)
	}

	token, err := v.idToken.Verify(ctx, raw)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindUnauthorized, "Authorization token invalid", err)
	}

	var claims usernameClaims
	if err := token.Claims(&claims); err != nil {
		return Identity{}, apperr.Wrap(apperr.KindUnauthorized, "Authorization token invalid", err)
	}

	username := claims.pick()
	if username == "" {
		return Identity{}, apperr.New(apperr.KindUnauthorized, "Token has no username claim")
	}

	return Identity{username: username}, nil
}

func (v *Verifier) verifyClaimsOnly(raw string) (Identity, error) {
	var claims jwt.MapClaims

	_, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindUnauthorized, "Authorization token invalid", err)
	}

	username, _ := claims["username"].(string)
	if username == "" {
		username, _ = claims["cognito:username"].(string)
	}

	if username == "" {
		return Identity{}, apperr.New(apperr.KindUnauthorized, "Token has no username claim")
	}

	return Identity{username: username}, nil
}
