package model

import (
	"context"
	"net/http"
	"time"

	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// AccessToken is the claims object carried inside the JWT access token.
type AccessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RefreshToken is the claims object of the rotating refresh token.
type RefreshToken struct {
	Family  string
	Counter uint64
}

// OAuth2 Verify. The mobile app runs the oauth2 dance itself and sends the
// proof here, either an access token, an authorization code with pkce, or an
// id token.
type OAuth2VerifyRequest struct {
	Type         string `json:"type"`
	AccessToken  string `json:"access_token"`
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
	IDToken      string `json:"id_token"`
}

type OAuth2VerifyResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// OAuth2 Login, the redirect flow for web clients.
type OAuth2LoginRequest struct {
	Type string `json:"type"`
}

type OAuth2LoginResponse struct {
	RedirectURL string `json:"-"`
	State       string `json:"-"`
}

func (r OAuth2LoginResponse) RedirectInfo() (int, string) {
	return http.StatusTemporaryRedirect, r.RedirectURL
}

func (r OAuth2LoginResponse) SessionInfo() map[string]any {
	return map[string]any{"state": r.State}
}

// OAuth2 Callback
type OAuth2CallbackRequest struct {
	Type         string `json:"type"`
	State        string `json:"state"`
	SessionState string `session:"state,delete"`
	Code         string `json:"code"`
}

type OAuth2CallbackResponse struct {
	RedirectURL  string `json:"-"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

func (r OAuth2CallbackResponse) RedirectInfo() (int, string) {
	return http.StatusTemporaryRedirect, r.RedirectURL
}

func (r OAuth2CallbackResponse) CookieInfo(ctx context.Context) []http.Cookie {
	return []http.Cookie{
		{
			Name:     xcontext.Configs(ctx).Auth.AccessToken.Name,
			Value:    r.AccessToken,
			Path:     "/",
			Domain:   "",
			Expires:  time.Now().Add(xcontext.Configs(ctx).Auth.AccessToken.Expiration),
			Secure:   true,
			HttpOnly: false,
		},
		{
			Name:     xcontext.Configs(ctx).Auth.RefreshToken.Name,
			Value:    r.RefreshToken,
			Path:     "/",
			Domain:   "",
			Expires:  time.Now().Add(xcontext.Configs(ctx).Auth.RefreshToken.Expiration),
			Secure:   true,
			HttpOnly: false,
		},
	}
}

// Refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
