package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: a.md", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: ../x", ErrInvalidPath), http.StatusBadRequest},
		{fmt.Errorf("%w: b.md", ErrConflict), http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{os.ErrNotExist, http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestIsInternal(t *testing.T) {
	if IsInternal(fmt.Errorf("wrapped: %w", ErrConflict)) {
		t.Error("conflict should not be internal")
	}
	if !IsInternal(errors.New("boom")) {
		t.Error("uncategorized error should be internal")
	}
}
