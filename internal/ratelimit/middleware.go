package ratelimit

import (
	"github.com/gin-gonic/gin"

	"github.com/ozanberk/blogforum/internal/apperrors"
)

// Bucket names shared between configuration and routes.
const (
	BucketPostCreate = "post-create"
	BucketReact      = "react"
	BucketGlobal     = "global"
)

// Middleware rejects over-budget requests with 429 before any handler
// state is touched, so a limited request has no partial side effects.
func Middleware(l *Limiter, bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP(), bucket) {
			c.AbortWithStatusJSON(
				apperrors.HTTPStatus(apperrors.ErrRateLimited),
				gin.H{"error": apperrors.ErrRateLimited.Error()},
			)
			return
		}
		c.Next()
	}
}
