package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/docs"
	"github.com/ozanberk/blogforum/internal/models"
)

// Upload stores a standalone file for the acting user and, for
// document formats, returns an extracted text preview. Extraction
// failures are recoverable: the file is kept and the error message is
// returned alongside it.
func (h *Handler) Upload(c *gin.Context) {
	user, _ := auth.UserFrom(c)

	file, err := c.FormFile("file")
	if err != nil {
		h.fail(c, apperrors.Validation("no file in request"))
		return
	}

	name, err := h.saveUpload(c, file)
	if err != nil {
		h.fail(c, err)
		return
	}

	m := models.Media{
		Filename:     name,
		Filetype:     file.Header.Get("Content-Type"),
		DateUploaded: time.Now().UTC(),
		UserID:       user.ID,
	}
	if err := h.db.Create(&m).Error; err != nil {
		_ = h.media.Remove(name)
		h.fail(c, apperrors.FromDB(err))
		return
	}

	resp := gin.H{"media": m}
	preview, err := docs.Extract(h.media.Path(name))
	switch {
	case err == nil:
		resp["content"] = preview
	case errors.Is(err, docs.ErrUnsupportedFormat):
		// Not a document; nothing to preview.
	default:
		resp["extract_error"] = err.Error()
	}

	c.JSON(201, resp)
}
