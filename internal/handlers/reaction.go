package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/models"
)

// ReactionInput is the like/dislike DTO.
type ReactionInput struct {
	PostID uint                `form:"post_id" json:"post_id" binding:"required"`
	Kind   models.ReactionKind `form:"reaction" json:"reaction" binding:"required"`
}

// React upserts the acting user's reaction on a post: a second
// reaction from the same user overwrites the kind of the existing row
// instead of inserting another. The insert-or-update is a single
// atomic ON CONFLICT statement against the (user_id, post_id) unique
// index, and the returned counts are read inside the same transaction
// so they are consistent with the just-applied change.
func (h *Handler) React(c *gin.Context) {
	user, _ := auth.UserFrom(c)

	var input ReactionInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid reaction: %v", err))
		return
	}
	if !input.Kind.Valid() {
		h.fail(c, apperrors.Validation("reaction must be like or dislike"))
		return
	}

	var likes, dislikes int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, input.PostID).Error; err != nil {
			return apperrors.FromDB(err)
		}

		reaction := models.Reaction{
			UserID: user.ID,
			PostID: post.ID,
			Kind:   input.Kind,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.Assignments(map[string]any{"kind": input.Kind}),
		}).Create(&reaction).Error
		if err != nil {
			return apperrors.FromDB(err)
		}

		likes, dislikes, err = h.reactionCounts(tx, post.ID)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	// Counts are shown on the post detail page.
	h.inv.Post(input.PostID)

	c.JSON(200, gin.H{
		"status":       "success",
		"likeCount":    likes,
		"dislikeCount": dislikes,
	})
}
