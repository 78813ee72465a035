package brandsite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_parseMetadata(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
<title>Coffee House | Rewards</title>
<meta name="description" content="Free drinks for loyal members">
<meta property="og:title" content="Coffee House">
<meta property="og:image" content="https://cdn.example.com/coffee.png">
</head>
<body><p>Welcome</p></body>
</html>`

	meta := parseMetadata(page)
	require.Equal(t, "Coffee House", meta.Title)
	require.Equal(t, "Free drinks for loyal members", meta.Description)
	require.Equal(t, "https://cdn.example.com/coffee.png", meta.ImageURL)
}

func Test_parseMetadata_titleFallback(t *testing.T) {
	page := `<html><head><title> Plain Title </title></head><body></body></html>`

	meta := parseMetadata(page)
	require.Equal(t, "Plain Title", meta.Title)
	require.Empty(t, meta.Description)
	require.Empty(t, meta.ImageURL)
}

func Test_parseMetadata_malformed(t *testing.T) {
	meta := parseMetadata(`<html><head><meta property="og:image"`)
	require.Empty(t, meta.ImageURL)
}
