package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/quickcollab/internal/common"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", fmt.Errorf("%w: title is required", common.ErrorValidation), http.StatusBadRequest, common.CodeValidation},
		{"bad login", common.ErrInvalidCredentials, http.StatusUnauthorized, common.CodeBadLogin},
		{"expired", common.ErrTokenExpired, http.StatusUnauthorized, common.CodeTokenExpired},
		{"invalid", fmt.Errorf("%w: signature", common.ErrInvalidToken), http.StatusUnauthorized, common.CodeTokenInvalid},
		{"revoked", common.ErrTokenRevoked, http.StatusUnauthorized, common.CodeTokenInvalid},
		{"forbidden", common.ErrorForbidden, http.StatusForbidden, common.CodeForbidden},
		{"not found", common.ErrorNotFound, http.StatusNotFound, common.CodeNotFound},
		{"exists", common.ErrorAlreadyExists, http.StatusConflict, common.CodeConflict},
		{"version", common.ErrVersionConflict, http.StatusConflict, common.CodeConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError, common.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			if status != tt.status || code != tt.code {
				t.Fatalf("classify(%v) = %d %q, want %d %q", tt.err, status, code, tt.status, tt.code)
			}
		})
	}
}
