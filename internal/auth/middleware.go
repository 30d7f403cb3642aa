package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/models"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "currentUser"
)

// Login binds the session to the user's identity.
func Login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	return session.Save()
}

// Logout invalidates the session via signed-cookie expiry.
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// CurrentUser loads the session's user into the request context when
// present. It never aborts; anonymous requests pass through.
func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(sessionUserKey).(uint)
		if ok {
			var user models.User
			if err := db.First(&user, id).Error; err == nil {
				c.Set(contextUserKey, &user)
			}
		}
		c.Next()
	}
}

// UserFrom returns the authenticated user placed by CurrentUser.
func UserFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// LoginRequired aborts anonymous requests with 401.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// AdminRequired aborts requests whose user does not hold the admin
// role. Must run after CurrentUser.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(
				apperrors.HTTPStatus(apperrors.ErrForbidden),
				gin.H{"error": apperrors.ErrForbidden.Error()},
			)
			return
		}
		c.Next()
	}
}
