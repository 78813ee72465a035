package stringutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToSnakeCase(t *testing.T) {
	require.Equal(t, "reward_item", ToSnakeCase("RewardItem"))
	require.Equal(t, "o_auth2", ToSnakeCase("OAuth2"))
	require.Equal(t, "user_id", ToSnakeCase("UserID"))
	require.Equal(t, "simple", ToSnakeCase("simple"))
}
