package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

const testSecret = "test-service-role-secret"

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func guarded(secret string) (http.Handler, *string) {
	var seen string
	h := ServiceRoleAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func call(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/jobs/x/assign", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Code
}

func TestServiceRoleAuth_AcceptsServiceRole(t *testing.T) {
	h, seen := guarded(testSecret)
	tok := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"role": "service_role",
		"sub":  "ops-dashboard",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rr := call(h, tok)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "ops-dashboard", *seen)
}

func TestServiceRoleAuth_DefaultsSubjectToRole(t *testing.T) {
	h, seen := guarded(testSecret)
	tok := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "service_role"})

	rr := call(h, tok)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "service_role", *seen)
}

func TestServiceRoleAuth_Rejects(t *testing.T) {
	valid := jwt.MapClaims{"role": "service_role", "exp": time.Now().Add(time.Hour).Unix()}

	cases := []struct {
		name   string
		secret string
		token  func(t *testing.T) string
		status int
		code   string
	}{
		{
			name:   "unconfigured",
			secret: "",
			token:  func(t *testing.T) string { return signed(t, jwt.SigningMethodHS256, []byte("x"), valid) },
			status: http.StatusServiceUnavailable,
			code:   utils.ErrCodeNotConfigured,
		},
		{
			name:   "missing header",
			secret: testSecret,
			token:  func(t *testing.T) string { return "" },
			status: http.StatusUnauthorized,
			code:   utils.ErrCodeUnauthorized,
		},
		{
			name:   "wrong secret",
			secret: testSecret,
			token:  func(t *testing.T) string { return signed(t, jwt.SigningMethodHS256, []byte("other"), valid) },
			status: http.StatusUnauthorized,
			code:   utils.ErrCodeUnauthorized,
		},
		{
			name:   "expired",
			secret: testSecret,
			token: func(t *testing.T) string {
				return signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
					"role": "service_role",
					"exp":  time.Now().Add(-time.Minute).Unix(),
				})
			},
			status: http.StatusUnauthorized,
			code:   utils.ErrCodeTokenExpired,
		},
		{
			name:   "anon role",
			secret: testSecret,
			token: func(t *testing.T) string {
				return signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "anon"})
			},
			status: http.StatusForbidden,
			code:   utils.ErrCodeUnauthorized,
		},
		{
			name:   "unsigned",
			secret: testSecret,
			token: func(t *testing.T) string {
				return signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)
			},
			status: http.StatusUnauthorized,
			code:   utils.ErrCodeUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, seen := guarded(tc.secret)
			rr := call(h, tc.token(t))
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.code, errorCode(t, rr))
			assert.Empty(t, *seen)
		})
	}
}
