package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_IsValidEmail(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{
			name: "short valid address",
			addr: "a@b.co",
			want: true,
		},
		{
			name: "plus and dots in local part",
			addr: "first.last+tag@mail.example.com",
			want: true,
		},
		{
			name: "hyphenated domain",
			addr: "user@my-brand.shop",
			want: true,
		},
		{
			name: "no at sign",
			addr: "not-an-email",
			want: false,
		},
		{
			name: "domain without dot",
			addr: "a@b",
			want: false,
		},
		{
			name: "missing local part",
			addr: "@example.com",
			want: false,
		},
		{
			name: "single letter tld",
			addr: "a@example.c",
			want: false,
		},
		{
			name: "digits in tld",
			addr: "a@example.c0m",
			want: false,
		},
		{
			name: "spaces",
			addr: "a b@example.com",
			want: false,
		},
		{
			name: "empty",
			addr: "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsValidEmail(tt.addr))
		})
	}
}
