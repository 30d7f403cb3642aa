// Package routes composes the middleware chain per route. Ordering is
// fixed: session/current-user, then rate limiting, then cache read,
// then the handler (which invalidates after its transaction commits).
package routes

import (
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/cache"
	"github.com/ozanberk/blogforum/internal/config"
	"github.com/ozanberk/blogforum/internal/handlers"
	"github.com/ozanberk/blogforum/internal/ratelimit"
)

// Setup registers every route on r.
func Setup(r *gin.Engine, h *handlers.Handler, db *gorm.DB, store cache.Store, limiter *ratelimit.Limiter, cfg *config.Config) {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	r.Use(sessions.Sessions("blogforum_session", cookie.NewStore([]byte(cfg.Session.Secret))))
	r.Use(auth.CurrentUser(db))
	r.Use(ratelimit.Middleware(limiter, ratelimit.BucketGlobal))

	// Ping endpoint for health check
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Public reads, cached.
	r.GET("/", cache.Page(store, ttl, homeKey), h.Home)
	r.GET("/page/:page", cache.Page(store, ttl, homeKey), h.Home)
	r.GET("/post/:id", cache.Page(store, ttl, postKey), h.ViewPost)
	r.GET("/tag/:slug", cache.Page(store, ttl, tagKey), h.TagPage)

	// Public reads, uncached.
	r.GET("/search", h.Search)
	r.GET("/profile/:username", h.Profile)

	// Account lifecycle.
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	r.POST("/profile/:username", auth.LoginRequired(), h.UpdateProfile)

	// Mutations.
	r.POST("/new_post", auth.LoginRequired(), ratelimit.Middleware(limiter, ratelimit.BucketPostCreate), h.CreatePost)
	r.POST("/post/:id/update", auth.LoginRequired(), h.UpdatePost)
	r.POST("/post/:id/delete", auth.LoginRequired(), h.DeletePost)
	r.POST("/post/:id/comment", auth.LoginRequired(), h.AddComment)
	r.POST("/admin/delete_comment/:id", auth.LoginRequired(), h.DeleteComment)
	r.POST("/react", auth.LoginRequired(), ratelimit.Middleware(limiter, ratelimit.BucketReact), h.React)
	r.POST("/upload", auth.LoginRequired(), h.Upload)

	// Admin tag management.
	admin := r.Group("/admin", auth.LoginRequired(), auth.AdminRequired())
	{
		admin.GET("/tags", h.ListTags)
		admin.POST("/tags", h.CreateTag)
		admin.PUT("/tags/:id", h.UpdateTag)
		admin.DELETE("/tags/:id", h.DeleteTag)
	}
}

func homeKey(c *gin.Context) string {
	page := 1
	if p, err := strconv.Atoi(c.Param("page")); err == nil && p > 0 {
		page = p
	}
	return cache.HomeKey(page)
}

func postKey(c *gin.Context) string {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return ""
	}
	return cache.PostKey(uint(id))
}

func tagKey(c *gin.Context) string {
	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	return cache.TagKey(c.Param("slug"), page)
}
