package testutil

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/pkg/api/brandsite"
)

type MockBrandSite struct {
	GetMetadataFunc func(ctx context.Context, pageURL string) (brandsite.Metadata, error)
}

func (m *MockBrandSite) GetMetadata(
	ctx context.Context, pageURL string,
) (brandsite.Metadata, error) {
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx, pageURL)
	}

	return brandsite.Metadata{}, nil
}
