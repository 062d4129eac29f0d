package poolmfa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolctl/cognito-admin/pkg/cognito"
)

func TestHandler(t *testing.T) {
	mock := cognito.NewMockClient()
	require.NoError(t, mock.SetPoolMFAConfig(context.Background(), cognito.MFAModeOptional))

	router := chi.NewRouter()
	NewHandler(NewService(mock)).RegisterRoutes(router)

	t.Run("GetConfig", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pool/mfa", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		// Response keys use the same camelCase casing as request bodies.
		assert.JSONEq(t,
			`{"mfaConfiguration":"OPTIONAL","enabledMfaMethods":["SOFTWARE_TOKEN_MFA"]}`,
			rec.Body.String())
	})

	t.Run("SetConfig", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pool/mfa", strings.NewReader(`{"mfaConfiguration":"ON"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, cognito.MFAModeOn, mock.Mode())
	})

	t.Run("InvalidMode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pool/mfa", strings.NewReader(`{"mfaConfiguration":"SOMETIMES"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
