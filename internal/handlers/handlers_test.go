package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/cache"
	"github.com/ozanberk/blogforum/internal/config"
	"github.com/ozanberk/blogforum/internal/handlers"
	"github.com/ozanberk/blogforum/internal/media"
	"github.com/ozanberk/blogforum/internal/models"
	"github.com/ozanberk/blogforum/internal/ratelimit"
	"github.com/ozanberk/blogforum/internal/routes"
)

const testPassword = "password123"

type env struct {
	db     *gorm.DB
	store  *cache.Memory
	router *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	cfg := &config.Config{
		Uploads:   config.UploadsConfig{Dir: t.TempDir(), MaxSizeMB: 5},
		Cache:     config.CacheConfig{TTLSeconds: 60},
		RateLimit: config.RateLimitConfig{PostPerMinute: 2, ReactPerMinute: 10, GlobalPerHour: 10000},
		Session:   config.SessionConfig{Secret: "test-secret"},
	}

	storage, err := media.NewStorage(cfg.Uploads.Dir)
	require.NoError(t, err)

	store := cache.NewMemory(time.Minute)
	limiter := ratelimit.New(map[string]ratelimit.Budget{
		ratelimit.BucketPostCreate: ratelimit.PerMinute(cfg.RateLimit.PostPerMinute),
		ratelimit.BucketReact:      ratelimit.PerMinute(cfg.RateLimit.ReactPerMinute),
		ratelimit.BucketGlobal:     ratelimit.PerHour(cfg.RateLimit.GlobalPerHour),
	})

	r := gin.New()
	h := handlers.NewHandler(db, store, storage, cfg)
	routes.Setup(r, h, db, store, limiter, cfg)

	return &env{db: db, store: store, router: r}
}

func (e *env) createUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Role:     role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

// login runs the real login flow and returns the session cookies.
func (e *env) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/login", gin.H{
		"username": username,
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())
	return readCookies(w)
}

func (e *env) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func readCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	resp := http.Response{Header: w.Header()}
	return resp.Cookies()
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
