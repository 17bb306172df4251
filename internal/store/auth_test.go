package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxl895/BrainWave/internal/domain"
)

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice@example.com", body["email"])
			_ = json.NewEncoder(w).Encode(Session{
				AccessToken: "jwt-1",
				User:        &domain.User{ID: "u1", Email: "alice@example.com"},
			})
		case "/rest/v1/messages":
			// Subsequent requests carry the session token, not the anon key.
			assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
			assert.Equal(t, "anon", r.Header.Get("apikey"))
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	s, err := c.SignInWithPassword(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", s.AccessToken)
	require.NotNil(t, c.GetSession())

	_, err = c.LoadMessages(context.Background(), "g1")
	require.NoError(t, err)
}

func TestSignInBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid login credentials"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	_, err := c.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	assert.True(t, errors.Is(err, domain.ErrAccessDenied), "got %v", err)
	assert.Nil(t, c.GetSession())
}

func TestSignUpCreatesProfileRow(t *testing.T) {
	var profile map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/signup":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "bob@example.com", body["email"])
			_ = json.NewEncoder(w).Encode(Session{
				AccessToken: "jwt-2",
				User:        &domain.User{ID: "u2", Email: "bob@example.com"},
			})
		case "/rest/v1/users":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&profile))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	_, err := c.SignUp(context.Background(), "bob@example.com", "hunter2", "Bob River")
	require.NoError(t, err)
	assert.Equal(t, "u2", profile["id"])
	assert.Equal(t, "Bob River", profile["full_name"])
}

func TestSignOutClearsSessionEvenOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(Session{AccessToken: "jwt-3"})
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	err = c.SignOut(context.Background())
	assert.Error(t, err)
	assert.Nil(t, c.GetSession(), "local session must be forgotten regardless")
}

func TestOAuthURL(t *testing.T) {
	c := New("https://proj.example.co", "anon")
	got := c.OAuthURL("google", "https://app.example.com/callback")
	assert.Contains(t, got, "https://proj.example.co/auth/v1/authorize?")
	assert.Contains(t, got, "provider=google")
	assert.Contains(t, got, "redirect_to=https%3A%2F%2Fapp.example.com%2Fcallback")
}

func TestResetAndUpdatePassword(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	require.NoError(t, c.ResetPassword(context.Background(), "a@b.c", ""))
	require.NoError(t, c.UpdatePassword(context.Background(), "newpw"))
	assert.Equal(t, []string{"POST /auth/v1/recover", "PUT /auth/v1/user"}, paths)
}
