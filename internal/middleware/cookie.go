package middleware

import (
	"context"
	"net/http"

	"github.com/BillixOfficial/rewards-backend/pkg/router"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type CookieResponse interface {
	CookieInfo(ctx context.Context) []http.Cookie
}

func HandleSetCookie() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		cookieResp, ok := xcontext.GetResponse(ctx).(CookieResponse)
		if !ok {
			return ctx, nil
		}

		for _, cookie := range cookieResp.CookieInfo(ctx) {
			http.SetCookie(xcontext.HTTPWriter(ctx), &cookie)
		}

		return ctx, nil
	}
}
