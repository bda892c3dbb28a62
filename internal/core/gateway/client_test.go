package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	logouts int
	revoked []string
}

func (f *fakeCreds) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCreds) Revoke(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	if f.token == token {
		f.token = ""
		f.logouts++
	}
	return nil
}

func (f *fakeCreds) setToken(t string) {
	f.mu.Lock()
	f.token = t
	f.mu.Unlock()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeCreds) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := New(srv.URL+"/api/", WithLogger(logger))
	require.NoError(t, err)
	creds := &fakeCreds{}
	c.SetCredentials(creds)
	return c, creds
}

func TestTokenReadAtSendTime(t *testing.T) {
	var seen []string
	c, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{}`)
	})

	require.NoError(t, c.Get(context.Background(), "/users/me", nil, nil))
	creds.setToken("abc")
	require.NoError(t, c.Get(context.Background(), "/users/me", nil, nil))
	creds.setToken("def")
	require.NoError(t, c.Get(context.Background(), "/users/me", nil, nil))

	require.Equal(t, []string{"", "Bearer abc", "Bearer def"}, seen)
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	c, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	})
	creds.setToken("expired")

	var out map[string]any
	err := c.Get(context.Background(), "/leads", nil, &out)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnauthorized))
	require.Equal(t, "Could not validate credentials", Message(err, "Failed to fetch leads"))

	require.Equal(t, 1, creds.logouts)
	require.Equal(t, []string{"expired"}, creds.revoked)
	require.Empty(t, creds.Token())
}

func TestAnonymousRequestSkipsTokenAndLogout(t *testing.T) {
	var auth, contentType, username string
	c, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err == nil {
			username = r.PostForm.Get("username")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
	})
	creds.setToken("still-valid")

	form := url.Values{"username": {"jane"}, "password": {"secret1"}}
	_, err := c.Send(context.Background(), Request{
		Method:    http.MethodPost,
		Path:      "/users/login",
		Form:      form,
		Anonymous: true,
	}, nil)
	require.Error(t, err)
	require.Empty(t, auth)
	require.Equal(t, "application/x-www-form-urlencoded", contentType)
	require.Equal(t, "jane", username)
	require.Zero(t, creds.logouts)
	require.Equal(t, "still-valid", creds.Token())
}

func TestPathJoinsBaseURL(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[]`)
	})

	var out []any
	require.NoError(t, c.Get(context.Background(), "leads", url.Values{"skip": {"0"}, "limit": {"10"}}, &out))
	require.Equal(t, "/api/leads", gotPath)
	require.Equal(t, "limit=10&skip=0", gotQuery)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		fallback string
		want     string
	}{
		{"string detail", 400, `{"detail":"Email already registered"}`, "Registration failed", "Email already registered"},
		{"validation list", 422, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "Failed", "email: value is not a valid email address"},
		{"html body", 502, `<html>bad gateway</html>`, "Failed to fetch leads", "Failed to fetch leads"},
		{"empty body", 500, ``, "Failed to fetch lead data", "Failed to fetch lead data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.Get(context.Background(), "/x", nil, nil)
			var gwErr *Error
			require.ErrorAs(t, err, &gwErr)
			require.Equal(t, tt.status, gwErr.StatusCode)
			require.Equal(t, tt.want, Message(err, tt.fallback))
		})
	}
}

func TestNotFound(t *testing.T) {
	c, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Lead not found"}`)
	})
	creds.setToken("abc")

	err := c.Get(context.Background(), "/leads/42", nil, nil)
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrUnauthorized))
	require.Zero(t, creds.logouts)
}

func TestTransportErrorUsesFallback(t *testing.T) {
	c, err := New("http://127.0.0.1:1", WithLogger(logrus.New()))
	require.NoError(t, err)

	err = c.Get(context.Background(), "/leads", nil, nil)
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	require.Zero(t, gwErr.StatusCode)
	require.Equal(t, "Failed to fetch leads", Message(err, "Failed to fetch leads"))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("localhost:8000")
	require.Error(t, err)
}

func TestEachRequestGetsItsOwnID(t *testing.T) {
	var ids []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `{}`)
	})

	for range 3 {
		require.NoError(t, c.Get(context.Background(), "/leads", nil, nil))
	}

	require.Len(t, ids, 3)
	seen := map[string]bool{}
	for _, id := range ids {
		require.Len(t, id, 36)
		seen[id] = true
	}
	require.Len(t, seen, 3)
}
