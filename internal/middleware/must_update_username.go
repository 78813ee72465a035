package middleware

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/router"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"golang.org/x/exp/slices"
)

func MustUpdateUsername(userRepo repository.UserRepository, excludes ...string) router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		requestUserID := xcontext.RequestUserID(ctx)
		if requestUserID == "" {
			return ctx, nil
		}

		if slices.Contains(excludes, xcontext.HTTPRequest(ctx).URL.Path) {
			return ctx, nil
		}

		user, err := userRepo.GetByID(ctx, requestUserID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
			return ctx, errorx.Unknown
		}

		if user.IsNewUser {
			return ctx, errorx.New(errorx.Unavailable,
				"User must setup username before using application")
		}

		return ctx, nil
	}
}
