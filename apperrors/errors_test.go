package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindNotFound, KindOf(NotFound("question not found")))
	assert.Equal(t, KindInvalidCredential, KindOf(fmt.Errorf("refresh: %w", InvalidCredential("expired"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestIsMatchesOnKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("load: %w", NotFound("answer not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	t.Parallel()

	err := Internal("find question", errors.New("connection refused"))
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, "email already in use", PublicMessage(Conflict("email already in use")))
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := map[Kind]int{
		KindUnauthenticated:   http.StatusUnauthorized,
		KindInvalidCredential: http.StatusForbidden,
		KindNotFound:          http.StatusNotFound,
		KindValidation:        http.StatusBadRequest,
		KindConflict:          http.StatusBadRequest,
		KindInternal:          http.StatusInternalServerError,
		Kind("other"):         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}
