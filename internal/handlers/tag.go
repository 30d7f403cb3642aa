package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/models"
	"github.com/ozanberk/blogforum/internal/slug"
)

// TagPage serves one page of a tag's feed, 5 per page. Cached under
// tag:<slug>:page:N.
func (h *Handler) TagPage(c *gin.Context) {
	slugParam := c.Param("slug")
	page := pageQuery(c)

	var tag models.Tag
	if err := h.db.Where("slug = ?", slugParam).First(&tag).Error; err != nil {
		h.fail(c, apperrors.FromDB(err))
		return
	}

	tagged := func() *gorm.DB {
		return h.db.Model(&models.Post{}).
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", tag.ID)
	}

	var total int64
	if err := tagged().Count(&total).Error; err != nil {
		h.fail(c, err)
		return
	}

	var posts []models.Post
	err := tagged().Preload("Tags").Preload("Author").
		Order("date_posted DESC").
		Limit(tagPerPage).
		Offset((page - 1) * tagPerPage).
		Find(&posts).Error
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"tag":        tag,
		"posts":      posts,
		"pagination": paginate(page, tagPerPage, total),
	})
}

// ListTags lists every tag. Admin route.
func (h *Handler) ListTags(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name").Find(&tags).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"tags": tags})
}

// TagInput is the tag CRUD DTO.
type TagInput struct {
	Name string `form:"name" json:"name" binding:"required,max=30"`
}

// CreateTag inserts a tag with a collision-free slug. Admin route.
func (h *Handler) CreateTag(c *gin.Context) {
	var input TagInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid tag: %v", err))
		return
	}

	var tag models.Tag
	err := h.db.Transaction(func(tx *gorm.DB) error {
		s, err := slug.Unique(tx, input.Name)
		if err != nil {
			return err
		}
		tag = models.Tag{Name: input.Name, Slug: s}
		return apperrors.FromDB(tx.Create(&tag).Error)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(201, gin.H{"tag": tag})
}

// UpdateTag renames a tag, recomputing the slug with the same
// disambiguation used at creation (the tag's own row is excluded, so a
// rename to an equivalent name keeps its slug). Admin route.
func (h *Handler) UpdateTag(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input TagInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid tag: %v", err))
		return
	}

	var tag models.Tag
	var oldSlug string
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			return apperrors.FromDB(err)
		}
		oldSlug = tag.Slug

		s, err := slug.UniqueExcluding(tx, input.Name, tag.ID)
		if err != nil {
			return err
		}
		return apperrors.FromDB(tx.Model(&tag).Updates(map[string]any{
			"name": input.Name,
			"slug": s,
		}).Error)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.inv.Tag(oldSlug)
	if tag.Slug != oldSlug {
		h.inv.Tag(tag.Slug)
	}
	h.inv.Home()

	c.JSON(200, gin.H{"tag": tag})
}

// DeleteTag removes a tag; the post_tags join rows go with it via the
// association clear, posts are untouched. Admin route.
func (h *Handler) DeleteTag(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var deletedSlug string
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			return apperrors.FromDB(err)
		}
		deletedSlug = tag.Slug
		if err := tx.Model(&tag).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.inv.Tag(deletedSlug)
	h.inv.Home()

	c.JSON(200, gin.H{"message": "tag deleted"})
}
