package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := ErrCircularDependency([]string{"A", "B", "A"})
	assert.Contains(t, err.Error(), "CIRCULAR_DEPENDENCY")
	assert.Contains(t, err.Error(), "A -> B -> A")

	wrapped := ErrProviderInitFailed("root", "db", New("dial failed"))
	assert.Contains(t, wrapped.Error(), "PROVIDER_INIT_FAILED")
	assert.Contains(t, wrapped.Error(), "dial failed")
}

func TestSentinelMatching(t *testing.T) {
	err := ErrCircularDependency([]string{"A", "B", "A"})
	assert.True(t, IsCircularDependency(err))
	assert.False(t, IsBindingNotFound(err))

	assert.True(t, IsRouteNotFound(ErrRouteNotFound("GET", "/missing")))
	assert.True(t, IsModuleNotFound(ErrModuleNotFound("ghost")))
	assert.True(t, IsUnresolvableDependency(ErrUnresolvableDependency("db", "UserService")))
}

func TestUnwrapChain(t *testing.T) {
	cause := New("boom")
	err := ErrProviderInitFailed("root", "db", cause)

	require.ErrorIs(t, err, cause)

	var structured *Error
	require.True(t, As(err, &structured))
	assert.Equal(t, CodeProviderInitFailed, structured.Code)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrRouteNotFound("GET", "/x")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrValidationError("name", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrBindingNotFound("svc")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(New("plain")))
}
