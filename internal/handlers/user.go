package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/content"
	"github.com/ozanberk/blogforum/internal/models"
)

// SignupInput is the registration DTO.
type SignupInput struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Signup registers a new account. Duplicate username or email fails
// the insert atomically; no partial user row survives.
func (h *Handler) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid signup: %v", err))
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.fail(c, apperrors.FromDB(err))
		return
	}

	c.JSON(201, gin.H{"user": user})
}

// LoginInput is the credential DTO.
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and binds the session. The whole cache is
// flushed as a conservative measure around auth-state changes.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid login: %v", err))
		return
	}

	user, err := auth.Authenticate(h.db, input.Username, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := auth.Login(c, user); err != nil {
		h.fail(c, err)
		return
	}

	h.inv.All()
	c.JSON(200, gin.H{"user": user})
}

// Logout tears down the session and flushes the cache.
func (h *Handler) Logout(c *gin.Context) {
	if err := auth.Logout(c); err != nil {
		h.fail(c, err)
		return
	}
	h.inv.All()
	c.JSON(200, gin.H{"message": "logged out"})
}

// Profile serves a user's public page: their posts and comments,
// newest first.
func (h *Handler) Profile(c *gin.Context) {
	username := c.Param("username")

	var user models.User
	if err := h.db.Where("username = ?", username).First(&user).Error; err != nil {
		h.fail(c, apperrors.FromDB(err))
		return
	}

	var posts []models.Post
	err := h.db.Preload("Tags").
		Where("author_id = ?", user.ID).
		Order("date_posted DESC").
		Find(&posts).Error
	if err != nil {
		h.fail(c, err)
		return
	}

	var comments []models.Comment
	err = h.db.Where("author_id = ?", user.ID).
		Order("date_posted DESC").
		Find(&comments).Error
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"user":     user,
		"posts":    posts,
		"comments": comments,
	})
}

// ProfileInput is the profile-update DTO. SocialLinks is an arbitrary
// JSON document of link labels to URLs.
type ProfileInput struct {
	Username    string         `form:"username" json:"username" binding:"omitempty,min=3,max=150"`
	Bio         string         `form:"bio" json:"bio" binding:"max=2000"`
	SocialLinks datatypes.JSON `form:"-" json:"social_links"`
}

// UpdateProfile lets a user edit their own profile (admins may edit
// anyone's). Avatar uploads are restricted to image files.
func (h *Handler) UpdateProfile(c *gin.Context) {
	actor, _ := auth.UserFrom(c)
	username := c.Param("username")

	var input ProfileInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid profile: %v", err))
		return
	}

	var avatar string
	if file, err := c.FormFile("avatar"); err == nil && file != nil {
		if !content.IsImage(file.Filename) {
			h.fail(c, apperrors.Validation("avatar must be an image"))
			return
		}
		avatar, err = h.saveUpload(c, file)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	var user models.User
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return apperrors.FromDB(err)
		}
		if !actor.CanModify(user.ID) {
			return apperrors.ErrForbidden
		}

		updates := map[string]any{"bio": input.Bio}
		if input.Username != "" {
			updates["username"] = input.Username
		}
		if len(input.SocialLinks) > 0 {
			updates["social_links"] = input.SocialLinks
		}
		if avatar != "" {
			updates["avatar"] = avatar
			m := models.Media{
				Filename:     avatar,
				Filetype:     "image",
				DateUploaded: time.Now().UTC(),
				UserID:       user.ID,
			}
			if err := tx.Create(&m).Error; err != nil {
				return apperrors.FromDB(err)
			}
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return apperrors.FromDB(err)
		}
		return nil
	})
	if err != nil {
		if avatar != "" {
			_ = h.media.Remove(avatar)
		}
		h.fail(c, err)
		return
	}

	c.JSON(200, gin.H{"user": user})
}
