package domain

import (
	"context"
	"regexp"

	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

func checkUsername(ctx context.Context, userName string) error {
	if len(userName) < 4 {
		return errorx.New(errorx.BadRequest, "Username too short (at least 4 characters)")
	}

	if len(userName) > 32 {
		return errorx.New(errorx.BadRequest, "Username too long (at most 32 characters)")
	}

	ok, err := regexp.MatchString("^[A-Za-z0-9_]*$", userName)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot execute regex pattern: %v", err)
		return errorx.Unknown
	}

	if !ok {
		return errorx.New(errorx.BadRequest, "Name contains invalid characters")
	}

	return nil
}

// normalizeLimit applies the server paging defaults and bounds. Every list
// endpoint goes through here so the rules cannot drift apart.
func normalizeLimit(ctx context.Context, limit int) (int, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if limit == 0 {
		limit = apiCfg.DefaultLimit
	}

	if limit < 0 {
		return 0, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if limit > apiCfg.MaxLimit {
		return 0, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	return limit, nil
}
