// Package slug derives URL-safe identifiers for tags.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/models"
)

// maxAttempts bounds the disambiguation loop. Exhausting it means
// thousands of same-named tags already exist; treat as a conflict.
const maxAttempts = 8

var (
	stripRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	collapseRe = regexp.MustCompile(`[\s-]+`)
)

// Make lowercases text, strips everything outside [a-z0-9, space,
// hyphen] and collapses runs of spaces/hyphens into single hyphens.
// Make is idempotent: Make(Make(x)) == Make(x).
func Make(text string) string {
	s := strings.ToLower(text)
	s = stripRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = collapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Unique returns Make(name), disambiguated with -1, -2, ... suffixes
// against tags already present in tx. It must run inside the same
// transaction as the tag insert so the unique index can backstop the
// probe under concurrent creation.
func Unique(tx *gorm.DB, name string) (string, error) {
	return UniqueExcluding(tx, name, 0)
}

// UniqueExcluding is Unique for tag renames: the row identified by
// excludeID does not count as a collision, so renaming a tag to a name
// that slugifies to its current slug is a no-op rather than forcing a
// -1 suffix.
func UniqueExcluding(tx *gorm.DB, name string, excludeID uint) (string, error) {
	base := Make(name)
	if base == "" {
		base = "tag"
	}

	candidate := base
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		q := tx.Model(&models.Tag{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", apperrors.ErrSlugExhausted
}
