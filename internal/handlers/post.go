package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/content"
	"github.com/ozanberk/blogforum/internal/models"
	"github.com/ozanberk/blogforum/internal/slug"
)

// Home serves the newest-first post feed, 10 per page. Cached by the
// page middleware under home:page:N.
func (h *Handler) Home(c *gin.Context) {
	page := pageParam(c, "page")

	var total int64
	if err := h.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		h.fail(c, err)
		return
	}

	var posts []models.Post
	err := h.db.Preload("Tags").Preload("Author").
		Order("date_posted DESC").
		Limit(homePerPage).
		Offset((page - 1) * homePerPage).
		Find(&posts).Error
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"posts":      posts,
		"pagination": paginate(page, homePerPage, total),
	})
}

// ViewPost serves a post with its comments and reaction counts.
// Cached under post:<id>.
func (h *Handler) ViewPost(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var post models.Post
	err = h.db.Preload("Tags").Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_posted DESC").Preload("Author")
		}).
		First(&post, id).Error
	if err != nil {
		h.fail(c, apperrors.FromDB(err))
		return
	}

	likes, dislikes, err := h.reactionCounts(h.db, post.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"post":     post,
		"likes":    likes,
		"dislikes": dislikes,
	})
}

// PostInput is the DTO for creating or updating a post.
type PostInput struct {
	Title   string `form:"title" json:"title" binding:"required,max=200"`
	Content string `form:"content" json:"content" binding:"required"`
	Tags    string `form:"tags" json:"tags"`
}

// CreatePost sanitizes the submitted markup, resolves tag names to
// existing or freshly slugged tags, stores the optional media file and
// inserts the post, all in one transaction. Cache keys are invalidated
// only after the transaction commits.
func (h *Handler) CreatePost(c *gin.Context) {
	user, _ := auth.UserFrom(c)

	var input PostInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid post: %v", err))
		return
	}

	title := content.SanitizeTitle(input.Title)
	if title == "" {
		h.fail(c, apperrors.Validation("title must not be empty"))
		return
	}
	body, err := content.RenderAndSanitize(input.Content)
	if err != nil {
		h.fail(c, err)
		return
	}

	var storedName string
	file, err := c.FormFile("media")
	if err == nil && file != nil {
		storedName, err = h.saveUpload(c, file)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	post := models.Post{
		Title:         title,
		Content:       body,
		MediaFilename: storedName,
		DatePosted:    time.Now().UTC(),
		AuthorID:      user.ID,
	}

	var tagSlugs []string
	err = h.db.Transaction(func(tx *gorm.DB) error {
		tags, err := h.resolveTags(tx, input.Tags)
		if err != nil {
			return err
		}
		post.Tags = tags
		if err := tx.Create(&post).Error; err != nil {
			return apperrors.FromDB(err)
		}
		if storedName != "" {
			m := models.Media{
				Filename:     storedName,
				Filetype:     file.Header.Get("Content-Type"),
				DateUploaded: time.Now().UTC(),
				UserID:       user.ID,
				PostID:       &post.ID,
			}
			if err := tx.Create(&m).Error; err != nil {
				return apperrors.FromDB(err)
			}
		}
		for _, t := range tags {
			tagSlugs = append(tagSlugs, t.Slug)
		}
		return nil
	})
	if err != nil {
		// Rolled back; a stored file without a row is orphaned, clean up.
		if storedName != "" {
			_ = h.media.Remove(storedName)
		}
		h.fail(c, err)
		return
	}

	h.inv.Home()
	for _, s := range tagSlugs {
		h.inv.Tag(s)
	}

	c.JSON(201, gin.H{"post": post})
}

// UpdatePost rewrites title and content. Author-or-admin only;
// DatePosted is immutable.
func (h *Handler) UpdatePost(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var input PostInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, apperrors.Validation("invalid post: %v", err))
		return
	}

	title := content.SanitizeTitle(input.Title)
	body, err := content.RenderAndSanitize(input.Content)
	if err != nil {
		h.fail(c, err)
		return
	}

	var post models.Post
	var tagSlugs []string
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Tags").First(&post, id).Error; err != nil {
			return apperrors.FromDB(err)
		}
		if !user.CanModify(post.AuthorID) {
			return apperrors.ErrForbidden
		}
		for _, t := range post.Tags {
			tagSlugs = append(tagSlugs, t.Slug)
		}
		return tx.Model(&post).Updates(map[string]any{
			"title":   title,
			"content": body,
		}).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	// Titles show up in listings too, so take the conservative superset.
	h.inv.Post(post.ID)
	h.inv.Home()
	for _, s := range tagSlugs {
		h.inv.Tag(s)
	}

	c.JSON(200, gin.H{"post": post})
}

// DeletePost removes a post and, via FK cascade, its comments,
// reactions and tag associations. Attached media files are removed
// from disk after the transaction commits.
func (h *Handler) DeletePost(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var tagSlugs []string
	var mediaFiles []string
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Preload("Tags").First(&post, id).Error; err != nil {
			return apperrors.FromDB(err)
		}
		if !user.CanModify(post.AuthorID) {
			return apperrors.ErrForbidden
		}
		for _, t := range post.Tags {
			tagSlugs = append(tagSlugs, t.Slug)
		}

		var attached []models.Media
		if err := tx.Where("post_id = ?", post.ID).Find(&attached).Error; err != nil {
			return err
		}
		for _, m := range attached {
			mediaFiles = append(mediaFiles, m.Filename)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	for _, name := range mediaFiles {
		if err := h.media.Remove(name); err != nil {
			log.Printf("removing media file %s: %v", name, err)
		}
	}

	h.inv.Post(id)
	h.inv.Home()
	for _, s := range tagSlugs {
		h.inv.Tag(s)
	}

	c.JSON(200, gin.H{"message": "post deleted"})
}

// Search lists posts whose title or content matches the query,
// newest first.
func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		h.fail(c, apperrors.Validation("missing search query"))
		return
	}
	page := pageQuery(c)
	pattern := "%" + strings.ToLower(q) + "%"

	match := func() *gorm.DB {
		return h.db.Model(&models.Post{}).
			Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := match().Count(&total).Error; err != nil {
		h.fail(c, err)
		return
	}

	var posts []models.Post
	err := match().Preload("Tags").Preload("Author").
		Order("date_posted DESC").
		Limit(homePerPage).
		Offset((page - 1) * homePerPage).
		Find(&posts).Error
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"query":      q,
		"posts":      posts,
		"pagination": paginate(page, homePerPage, total),
	})
}

// resolveTags splits a comma-separated tag list and maps each name to
// an existing tag or a new one with a collision-free slug. Runs inside
// the caller's transaction; a concurrent insert that beats the probe
// is retried under a savepoint with the winner reused.
func (h *Handler) resolveTags(tx *gorm.DB, raw string) ([]models.Tag, error) {
	var tags []models.Tag
	seen := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		tag, err := findOrCreateTag(tx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func findOrCreateTag(tx *gorm.DB, name string) (*models.Tag, error) {
	var tag models.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < 3; attempt++ {
		s, err := slug.Unique(tx, name)
		if err != nil {
			return nil, err
		}
		candidate := models.Tag{Name: name, Slug: s}
		// Nested transaction = savepoint, so a lost insert race does
		// not poison the outer transaction.
		err = tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&candidate).Error
		})
		if err == nil {
			return &candidate, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent creation: if the name now exists, reuse it;
			// if only the slug was taken, probe again.
			var existing models.Tag
			if tx.Where("name = ?", name).First(&existing).Error == nil {
				return &existing, nil
			}
			continue
		}
		return nil, err
	}
	return nil, apperrors.ErrSlugExhausted
}

func (h *Handler) reactionCounts(tx *gorm.DB, postID uint) (likes, dislikes int64, err error) {
	err = tx.Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionLike).
		Count(&likes).Error
	if err != nil {
		return 0, 0, err
	}
	err = tx.Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionDislike).
		Count(&dislikes).Error
	return likes, dislikes, err
}

// saveUpload validates and stores one uploaded file, returning the
// stored filename.
func (h *Handler) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if !content.IsAllowedExtension(file.Filename) {
		return "", apperrors.Validation("file type not allowed: %s", file.Filename)
	}
	if file.Size > h.cfg.Uploads.MaxSizeMB*1024*1024 {
		return "", apperrors.Validation("file too large")
	}
	name := h.media.NewName(file.Filename)
	if err := c.SaveUploadedFile(file, h.media.Path(name)); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return name, nil
}
