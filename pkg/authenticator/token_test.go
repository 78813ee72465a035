package authenticator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenEngine(t *testing.T) {
	engine := NewTokenEngine("secret")
	token, err := engine.Generate(time.Minute, "abc")
	require.Nil(t, err)

	var msg string
	err = engine.Verify(token, &msg)
	require.NoError(t, err)
	require.Equal(t, "abc", msg)
}

func TestTokenEngineStruct(t *testing.T) {
	type object struct {
		ID   string
		Name string
	}

	engine := NewTokenEngine("secret")
	token, err := engine.Generate(time.Minute, object{ID: "id", Name: "name"})
	require.Nil(t, err)

	var obj object
	err = engine.Verify(token, &obj)
	require.NoError(t, err)
	require.Equal(t, object{ID: "id", Name: "name"}, obj)
}

func TestTokenEngineExpiration(t *testing.T) {
	engine := NewTokenEngine("secret")
	token, err := engine.Generate(time.Nanosecond, "abc")
	require.Nil(t, err)

	var msg string
	err = engine.Verify(token, &msg)
	require.Error(t, err)
}

func TestTokenEngineWrongSecret(t *testing.T) {
	engine := NewTokenEngine("secret")
	token, err := engine.Generate(time.Minute, "abc")
	require.Nil(t, err)

	var msg string
	err = NewTokenEngine("another-secret").Verify(token, &msg)
	require.Error(t, err)
}
