// Package handlers implements the request orchestration core: every
// mutating endpoint runs authorization, validation and a single gorm
// transaction, then invalidates the affected cache keys strictly after
// commit.
package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/cache"
	"github.com/ozanberk/blogforum/internal/config"
	"github.com/ozanberk/blogforum/internal/media"
)

const (
	homePerPage = 10
	tagPerPage  = 5
)

// Handler carries the injected collaborators. No package globals: the
// cache, limiter and storage live for exactly as long as the process.
type Handler struct {
	db    *gorm.DB
	cache cache.Store
	inv   cache.Invalidator
	media *media.Storage
	cfg   *config.Config
}

// NewHandler wires a Handler.
func NewHandler(db *gorm.DB, store cache.Store, storage *media.Storage, cfg *config.Config) *Handler {
	return &Handler{
		db:    db,
		cache: store,
		inv:   cache.Invalidator{Store: store},
		media: storage,
		cfg:   cfg,
	}
}

// fail maps a taxonomy error onto the response. Internal errors are
// logged and masked.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "something went wrong"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pagination is the listing metadata attached to every paged response.
type pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func paginate(page, perPage int, total int64) pagination {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func pageParam(c *gin.Context, name string) int {
	page, err := strconv.Atoi(c.Param(name))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.ErrNotFound
	}
	return uint(id), nil
}
