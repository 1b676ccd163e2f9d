package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestCachePage(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := utils.NewMemoryCacheWithClock(func() time.Time { return now })

	calls := 0
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		if ctx.GetHeader("X-User") == "7" {
			ctx.Set(ContextViewerKey, &models.User{ID: 7})
		}
	})
	r.GET("/", CachePage(cache, 20*time.Second), func(ctx *gin.Context) {
		calls++
		if ctx.Query("fail") != "" {
			ctx.String(http.StatusInternalServerError, "boom")
			return
		}
		ctx.String(http.StatusOK, "render %d", calls)
	})

	assert.Equal(t, "render 1", serve(r, http.MethodGet, "/").Body.String())
	assert.Equal(t, "render 1", serve(r, http.MethodGet, "/").Body.String())
	assert.Equal(t, 1, calls)

	assert.Equal(t, "render 2", serve(r, http.MethodGet, "/?page=2").Body.String(), "query is part of the key")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User", "7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "render 3", w.Body.String(), "viewers do not share entries")

	serve(r, http.MethodGet, "/?fail=1")
	serve(r, http.MethodGet, "/?fail=1")
	assert.Equal(t, 5, calls, "errors are not cached")

	now = now.Add(21 * time.Second)
	assert.Equal(t, "render 6", serve(r, http.MethodGet, "/").Body.String())
}

func TestCachePageDisabledWithZeroTTL(t *testing.T) {
	calls := 0
	r := gin.New()
	r.GET("/", CachePage(utils.NewMemoryCache(), 0), func(ctx *gin.Context) {
		calls++
		ctx.String(http.StatusOK, "ok")
	})
	serve(r, http.MethodGet, "/")
	serve(r, http.MethodGet, "/")
	assert.Equal(t, 2, calls)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	now = now.Add(31 * time.Second)
	assert.True(t, l.Allow("1.1.1.1"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	l := NewRateLimiter(1)
	r := gin.New()
	r.POST("/login/", l.Middleware(func(ctx *gin.Context) {
		ctx.String(http.StatusTooManyRequests, "slow down")
	}), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/login/").Code)
	w := serve(r, http.MethodPost, "/login/")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "slow down", w.Body.String())
}

func TestLoginRequired(t *testing.T) {
	r := gin.New()
	r.GET("/new/", LoginRequired(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "form")
	})

	w := serve(r, http.MethodGet, "/new/?draft=1")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fnew%2F%3Fdraft%3D1", w.Header().Get("Location"))
}

func TestIdentify(t *testing.T) {
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:identify?mode=memory&cache=shared",
		LogLevel:    "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	leo := &models.User{Username: "leo"}
	require.NoError(t, db.Create(leo).Error)

	blacklist := utils.NewTokenBlacklist(utils.NewMemoryCache())
	r := gin.New()
	r.Use(Identify(db, "secret", blacklist))
	r.GET("/", func(ctx *gin.Context) {
		if u := CurrentUser(ctx); u != nil {
			ctx.String(http.StatusOK, u.Username)
			return
		}
		ctx.String(http.StatusOK, "anonymous")
	})

	who := func(setup func(*http.Request)) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Body.String()
	}

	token, err := utils.GenerateToken("secret", leo.ID, leo.Username, time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other", leo.ID, leo.Username, time.Hour)
	require.NoError(t, err)
	orphan, err := utils.GenerateToken("secret", 999, "ghost", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "anonymous", who(func(*http.Request) {}))
	assert.Equal(t, "leo", who(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }))
	assert.Equal(t, "leo", who(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }))
	assert.Equal(t, "anonymous", who(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+foreign) }))
	assert.Equal(t, "anonymous", who(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+orphan) }))

	require.NoError(t, blacklist.Revoke(context.Background(), token, time.Now().Add(time.Hour)))
	assert.Equal(t, "anonymous", who(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }))
}

func TestPageViewRecorder(t *testing.T) {
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:pageviews?mode=memory&cache=shared",
		LogLevel:    "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	r := gin.New()
	r.Use(PageViewRecorder(db))
	r.GET("/leo/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "profile") })
	r.GET("/api/v1/posts/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "[]") })

	serve(r, http.MethodGet, "/leo/")
	serve(r, http.MethodGet, "/leo/")
	serve(r, http.MethodGet, "/api/v1/posts/")
	serve(r, http.MethodGet, "/missing/")

	var rows []models.PageView
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "/leo/", rows[0].Path)
	assert.EqualValues(t, 2, rows[0].Views)
}
