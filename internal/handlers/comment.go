package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/content"
	"github.com/ozanberk/blogforum/internal/models"
)

// CommentInput is the comment DTO.
type CommentInput struct {
	Content string `form:"content" json:"content" binding:"required,max=5000"`
}

// AddComment attaches a comment to a post and invalidates only that
// post's cached detail view.
func (h *Handler) AddComment(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	postID, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var input CommentInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid comment: %v", err))
		return
	}
	body, err := content.RenderAndSanitize(input.Content)
	if err != nil {
		h.fail(c, err)
		return
	}

	comment := models.Comment{
		Content:    body,
		DatePosted: time.Now().UTC(),
		PostID:     postID,
		AuthorID:   user.ID,
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return apperrors.FromDB(err)
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.inv.Post(postID)
	c.JSON(201, gin.H{"comment": comment})
}

// DeleteComment removes a comment. Comment-author-or-admin only;
// invalidates the parent post's detail view.
func (h *Handler) DeleteComment(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var postID uint
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return apperrors.FromDB(err)
		}
		if !user.CanModify(comment.AuthorID) {
			return apperrors.ErrForbidden
		}
		postID = comment.PostID
		return tx.Delete(&comment).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.inv.Post(postID)
	c.JSON(200, gin.H{"message": "comment deleted"})
}
