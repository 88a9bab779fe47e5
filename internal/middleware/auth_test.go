package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeValidator struct {
	userID string
	err    error
}

func (f *fakeValidator) ValidateJWT(token string) (string, error) {
	return f.userID, f.err
}

func TestAuthMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		validator  *fakeValidator
		wantStatus int
		wantUserID string
	}{
		{
			name:       "missing header",
			validator:  &fakeValidator{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "token abc",
			validator:  &fakeValidator{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer abc",
			validator:  &fakeValidator{err: errors.New("bad token")},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			header:     "Bearer abc",
			validator:  &fakeValidator{userID: "u1"},
			wantStatus: http.StatusOK,
			wantUserID: "u1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUserID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tc.validator)(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if gotUserID != tc.wantUserID {
				t.Fatalf("expected user id %q, got %q", tc.wantUserID, gotUserID)
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetUserID(req.Context()); id != "" {
		t.Fatalf("expected empty user id, got %q", id)
	}
}
