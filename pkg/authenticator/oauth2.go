package authenticator

import (
	"context"
	"errors"
	"fmt"

	"github.com/BillixOfficial/rewards-backend/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

type oauth2Service struct {
	name          string
	idField       string
	usernameField string

	provider *oidc.Provider
	config   oauth2.Config
}

// NewOAuth2Service discovers the oidc provider given in the configuration.
func NewOAuth2Service(ctx context.Context, cfg config.OAuth2Config) (IOAuth2Service, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	return &oauth2Service{
		name:          cfg.Name,
		idField:       cfg.IDField,
		usernameField: cfg.UsernameField,
		provider:      provider,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func (s *oauth2Service) Service() string {
	return s.name
}

// AuthCodeURL returns the provider consent page the browser login flow
// redirects to.
func (s *oauth2Service) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades the authorization code of the browser callback for a
// verified user.
func (s *oauth2Service) Exchange(ctx context.Context, code string) (OAuth2User, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return OAuth2User{}, err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return OAuth2User{}, errors.New("no id_token field in oauth2 token")
	}

	return s.VerifyIDToken(ctx, rawIDToken)
}

func (s *oauth2Service) GetUserID(ctx context.Context, accessToken string) (OAuth2User, error) {
	userInfo, err := s.provider.UserInfo(
		ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return OAuth2User{}, err
	}

	var profile map[string]any
	if err := userInfo.Claims(&profile); err != nil {
		return OAuth2User{}, err
	}

	return s.userFromProfile(profile)
}

func (s *oauth2Service) VerifyIDToken(ctx context.Context, rawIDToken string) (OAuth2User, error) {
	idToken, err := s.provider.Verifier(&oidc.Config{ClientID: s.config.ClientID}).
		Verify(ctx, rawIDToken)
	if err != nil {
		return OAuth2User{}, err
	}

	var profile map[string]any
	if err := idToken.Claims(&profile); err != nil {
		return OAuth2User{}, errors.New("invalid id token")
	}

	return s.userFromProfile(profile)
}

func (s *oauth2Service) VerifyAuthorizationCode(
	ctx context.Context, code, codeVerifier, redirectURI string,
) (OAuth2User, error) {
	config := s.config
	config.RedirectURL = redirectURI
	token, err := config.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return OAuth2User{}, err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return OAuth2User{}, errors.New("no id_token field in oauth2 token")
	}

	return s.VerifyIDToken(ctx, rawIDToken)
}

func (s *oauth2Service) userFromProfile(profile map[string]any) (OAuth2User, error) {
	id, ok := profile[s.idField].(string)
	if !ok {
		return OAuth2User{}, fmt.Errorf("invalid id field %s", s.idField)
	}

	username, ok := profile[s.usernameField].(string)
	if !ok {
		username = id
	}

	return OAuth2User{ID: id, Username: username}, nil
}
