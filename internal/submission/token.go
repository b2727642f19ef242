package submission

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/joseph-ayodele/submission-intake/internal/common"
)

const (
	// ExpiryMargin is how long before its real expiry a token stops being used.
	ExpiryMargin = 5 * time.Minute

	defaultTokenLifetime = 30 * time.Minute
)

// Token is a bearer token for the quote API.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Usable reports whether the token can still be sent at now.
func (t Token) Usable(now time.Time) bool {
	return t.AccessToken != "" && now.Add(ExpiryMargin).Before(t.ExpiresAt)
}

// fetchToken runs the client-credentials exchange against the environment's token URL.
// Credentials travel as form parameters, never as basic auth.
func fetchToken(ctx context.Context, client *http.Client, env EnvConfig, now time.Time) (Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     env.ClientID,
		ClientSecret: env.ClientSecret,
		TokenURL:     env.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if env.Audience != "" {
		cfg.EndpointParams = url.Values{"audience": {env.Audience}}
	}

	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, client))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			te := &TransportError{StatusCode: re.Response.StatusCode, Message: "token endpoint rejected client credentials"}
			switch re.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				te.Message = "client credentials rejected; check the configured client id and secret"
				te.Cause = common.ErrUnauthorized
			default:
				te.Retryable = re.Response.StatusCode >= 500
			}
			return Token{}, te
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Token{}, ctxErr
		}
		return Token{}, &TransportError{Message: "token request failed", Cause: err}
	}
	return Token{AccessToken: tok.AccessToken, ExpiresAt: tokenExpiry(tok.AccessToken, tok.Expiry, now)}, nil
}

// tokenExpiry prefers the expiry derived from expires_in, then the JWT exp claim,
// then a conservative default.
func tokenExpiry(access string, expiry time.Time, now time.Time) time.Time {
	if !expiry.IsZero() {
		return expiry
	}
	if exp, err := jwtExpiry(access); err == nil {
		return exp
	}
	return now.Add(defaultTokenLifetime)
}

// jwtExpiry reads exp without verifying the signature; the token is only inspected, never trusted.
func jwtExpiry(access string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}
