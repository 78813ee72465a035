package testutil

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/pkg/authenticator"
)

type mockOAuth2 struct {
	Name                        string
	AuthCodeURLFunc             func(state string) string
	ExchangeFunc                func(ctx context.Context, code string) (authenticator.OAuth2User, error)
	GetUserIDFunc               func(ctx context.Context, accessToken string) (authenticator.OAuth2User, error)
	VerifyIDTokenFunc           func(ctx context.Context, rawIDToken string) (authenticator.OAuth2User, error)
	VerifyAuthorizationCodeFunc func(ctx context.Context, code, codeVerifier, redirectURI string) (authenticator.OAuth2User, error)
}

func NewMockOAuth2(name string) *mockOAuth2 {
	return &mockOAuth2{Name: name}
}

func (m *mockOAuth2) Service() string {
	return m.Name
}

func (m *mockOAuth2) AuthCodeURL(state string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state)
	}

	return ""
}

func (m *mockOAuth2) Exchange(ctx context.Context, code string) (authenticator.OAuth2User, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}

	return authenticator.OAuth2User{}, nil
}

func (m *mockOAuth2) GetUserID(ctx context.Context, accessToken string) (authenticator.OAuth2User, error) {
	if m.GetUserIDFunc != nil {
		return m.GetUserIDFunc(ctx, accessToken)
	}

	return authenticator.OAuth2User{}, nil
}

func (m *mockOAuth2) VerifyIDToken(ctx context.Context, rawIDToken string) (authenticator.OAuth2User, error) {
	if m.VerifyIDTokenFunc != nil {
		return m.VerifyIDTokenFunc(ctx, rawIDToken)
	}

	return authenticator.OAuth2User{}, nil
}

func (m *mockOAuth2) VerifyAuthorizationCode(
	ctx context.Context, code, codeVerifier, redirectURI string,
) (authenticator.OAuth2User, error) {
	if m.VerifyAuthorizationCodeFunc != nil {
		return m.VerifyAuthorizationCodeFunc(ctx, code, codeVerifier, redirectURI)
	}

	return authenticator.OAuth2User{}, nil
}
