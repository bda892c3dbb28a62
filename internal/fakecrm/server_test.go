package fakecrm

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost), WithLogger(log)}, opts...)
	s := New(opts...)
	require.NoError(t, s.Seed())
	return s
}

func do(t *testing.T, s *Server, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestLoginIssuesBearerToken(t *testing.T) {
	s := newTestServer(t)
	form := url.Values{"username": {DemoUsername}, "password": {DemoPassword}}
	rec := do(t, s, http.MethodPost, "/users/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, rec.Code)

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	me := do(t, s, http.MethodGet, "/users/me", tok.AccessToken, nil, "")
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	s := newTestServer(t)

	valid, err := s.IssueToken(DemoUsername)
	require.NoError(t, err)
	foreign, err := New(WithSecret("some-other-secret")).IssueToken(DemoUsername)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		detail string
	}{
		{"missing", "", `"Not authenticated"`},
		{"garbage", "not-a-jwt", `"Could not validate credentials"`},
		{"wrong signing key", foreign, `"Could not validate credentials"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/leads", tt.token, nil, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, tt.detail, string(detailOf(t, rec)))
		})
	}

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/leads", valid, nil, "").Code)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	// The jwt library checks exp against the wall clock, so issue from the past.
	issued := time.Now().Add(-TokenTTL - time.Hour)
	s := newTestServer(t, WithClock(func() time.Time { return issued }))

	token, err := s.IssueToken(DemoUsername)
	require.NoError(t, err)
	rec := do(t, s, http.MethodGet, "/users/me", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateLeadReportsFieldErrors(t *testing.T) {
	s := newTestServer(t)
	token, err := s.IssueToken(DemoUsername)
	require.NoError(t, err)

	body := `{"first_name":"Ada","last_name":"","email":"not-an-email"}`
	rec := do(t, s, http.MethodPost, "/leads", token, strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var detail []struct {
		Loc  []string `json:"loc"`
		Msg  string   `json:"msg"`
		Type string   `json:"type"`
	}
	require.NoError(t, json.Unmarshal(detailOf(t, rec), &detail))

	fields := map[string]string{}
	for _, d := range detail {
		require.Len(t, d.Loc, 2)
		assert.Equal(t, "body", d.Loc[0])
		fields[d.Loc[1]] = d.Msg
	}
	assert.Equal(t, map[string]string{
		"last_name": "Last name is required",
		"email":     "Invalid email address",
	}, fields)
}

func TestListLeadsPagesAndCounts(t *testing.T) {
	s := newTestServer(t)
	token, err := s.IssueToken(DemoUsername)
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/leads?skip=0&limit=4", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "6", rec.Header().Get("X-Total-Count"))

	var page []models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 4)

	rec = do(t, s, http.MethodGet, "/leads?skip=4&limit=4", token, nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 2)

	rec = do(t, s, http.MethodGet, "/leads?skip=0&limit=10&status=bogus", token, nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	token, err := s.IssueToken(DemoUsername)
	require.NoError(t, err)

	s.Revoke(token)
	rec := do(t, s, http.MethodGet, "/dashboard/statistics", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSExposesTotalCount(t *testing.T) {
	s := newTestServer(t)
	token, err := s.IssueToken(DemoUsername)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Total-Count")
}
