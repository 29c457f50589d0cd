package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("approve: %w", Conflict("work order changed"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "work order changed", MessageOf(err))
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindOf(err)))
}

func TestStoreUnavailableHidesCause(t *testing.T) {
	err := StoreUnavailable(errors.New("dial tcp 10.0.0.1:5432: refused"))

	assert.Equal(t, "data store unavailable", MessageOf(err))
	assert.ErrorContains(t, err, "refused")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthenticated:   http.StatusUnauthorized,
		KindUnauthorized:      http.StatusForbidden,
		KindInvalidTransition: http.StatusUnprocessableEntity,
		KindValidation:        http.StatusBadRequest,
		KindConflict:          http.StatusConflict,
		KindNotFound:          http.StatusNotFound,
		KindStoreUnavailable:  http.StatusServiceUnavailable,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}
