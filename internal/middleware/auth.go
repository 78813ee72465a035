package middleware

import (
	"context"
	"strings"

	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/crypto"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/router"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// AuthVerifier authenticates a request and puts the user id into the
// context. Methods are enabled with the With builders, a router branch picks
// the combination it accepts.
type AuthVerifier struct {
	useAccessToken bool
	optional       bool
	apiKeyRepo     repository.APIKeyRepository
}

func NewAuthVerifier() *AuthVerifier {
	return &AuthVerifier{}
}

func (a *AuthVerifier) WithAccessToken() *AuthVerifier {
	a.useAccessToken = true
	return a
}

// WithOptional lets a request without any credential pass through as an
// anonymous one. A provided but invalid credential still fails.
func (a *AuthVerifier) WithOptional() *AuthVerifier {
	a.optional = true
	return a
}

func (a *AuthVerifier) WithAPIKey(apiKeyRepo repository.APIKeyRepository) *AuthVerifier {
	a.apiKeyRepo = apiKeyRepo
	return a
}

func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if a.useAccessToken {
			if token := getAccessToken(ctx); token != "" {
				var claims model.AccessToken
				if err := xcontext.TokenEngine(ctx).Verify(token, &claims); err != nil {
					xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
					return ctx, errorx.New(errorx.Unauthenticated, "Invalid access token")
				}

				return xcontext.WithRequestUserID(ctx, claims.ID), nil
			}
		}

		if a.apiKeyRepo != nil {
			if key := xcontext.HTTPRequest(ctx).Header.Get("X-Api-Key"); key != "" {
				owner, err := a.apiKeyRepo.GetOwnerByKey(ctx, crypto.SHA256([]byte(key)))
				if err != nil {
					xcontext.Logger(ctx).Debugf("Cannot get the owner of api key: %v", err)
					return ctx, errorx.New(errorx.Unauthenticated, "Invalid api key")
				}

				return xcontext.WithRequestUserID(ctx, owner), nil
			}
		}

		if a.optional {
			return ctx, nil
		}

		return ctx, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
	}
}

// getAccessToken reads the token from the Authorization header, falling back
// to the access token cookie set by the oauth2 callback.
func getAccessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if authorization := req.Header.Get("Authorization"); authorization != "" {
		token, ok := strings.CutPrefix(authorization, "Bearer ")
		if !ok {
			return ""
		}

		return token
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
