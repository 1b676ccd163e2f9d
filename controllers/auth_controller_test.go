package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
	"github.com/cppla/yatube/views"
)

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if r.PostFormValue("code") != "good-code" {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "login": "octocat", "name": "Mona"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "mona@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGitHubApp(t *testing.T) (*gin.Engine, *services.Users, *utils.StateStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:github_" + t.Name() + "?mode=memory&cache=shared",
		LogLevel:    "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cache := utils.NewMemoryCache()
	users := services.NewUsers(db)
	states := utils.NewStateStore(cache, time.Minute)
	a := NewAuthController(users, config.AppConfig{
		JWTSecret:          "secret",
		GitHubClientID:     "client",
		GitHubClientSecret: "shh",
		OAuthRedirectBase:  "http://localhost:8000/",
	}, utils.NewTokenBlacklist(cache), states, nil)
	require.NotNil(t, a.github)
	assert.Equal(t, "http://localhost:8000/auth/oauth/github/callback/", a.github.RedirectURL)

	srv := fakeGitHub(t)
	a.github.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/login/oauth/authorize",
		TokenURL:  srv.URL + "/login/oauth/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	a.githubAPI = srv.URL

	tmpl, err := views.Load(func(name string) string { return name })
	require.NoError(t, err)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/auth/oauth/github/login/", a.GitHubLogin)
	r.GET("/auth/oauth/github/callback/", a.GitHubCallback)
	return r, users, states
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGitHubLoginRedirectsWithState(t *testing.T) {
	r, _, states := newGitHubApp(t)

	w := get(r, "/auth/oauth/github/login/")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", loc.Path)
	assert.Equal(t, "client", loc.Query().Get("client_id"))
	assert.True(t, states.Consume(context.Background(), loc.Query().Get("state")))
}

func TestGitHubCallbackCreatesUserAndSession(t *testing.T) {
	r, users, states := newGitHubApp(t)
	state, err := states.Issue(context.Background())
	require.NoError(t, err)

	w := get(r, "/auth/oauth/github/callback/?code=good-code&state="+state)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var session string
	for _, c := range w.Result().Cookies() {
		if c.Name == "yatube_session" {
			session = c.Value
		}
	}
	require.NotEmpty(t, session)
	claims, err := utils.ParseToken("secret", session)
	require.NoError(t, err)
	assert.Equal(t, "octocat", claims.Username)

	u, err := users.ByUsername(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "mona@example.com", u.Email)
	assert.Equal(t, "Mona", u.FirstName)

	w = get(r, "/auth/oauth/github/callback/?code=good-code&state="+state)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"), "state is single use")
}

func TestGitHubCallbackRejectsBadCode(t *testing.T) {
	r, _, states := newGitHubApp(t)
	state, err := states.Issue(context.Background())
	require.NoError(t, err)

	w := get(r, "/auth/oauth/github/callback/?code=bad&state="+state)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))
	assert.Empty(t, w.Result().Cookies())
}

func TestGitHubDisabledWithoutCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuthController(nil, config.AppConfig{JWTSecret: "secret"}, nil, nil, nil)
	assert.Nil(t, a.github)

	tmpl, err := views.Load(func(name string) string { return name })
	require.NoError(t, err)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/auth/oauth/github/login/", a.GitHubLogin)
	assert.Equal(t, http.StatusNotFound, get(r, "/auth/oauth/github/login/").Code)
}

func TestSafeRedirectTarget(t *testing.T) {
	assert.Equal(t, "/new/?x=1", safeRedirectTarget("/new/?x=1", "/"))
	assert.Equal(t, "/", safeRedirectTarget("https://evil.example/", "/"))
	assert.Equal(t, "/", safeRedirectTarget("//evil.example/", "/"))
	assert.Equal(t, "/", safeRedirectTarget("relative", "/"))
	assert.Equal(t, "/", safeRedirectTarget("", "/"))
}
