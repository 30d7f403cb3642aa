// Package content renders user-submitted markup into HTML that is safe
// to store and serve, and validates upload filenames.
package content

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown passes raw HTML through to the renderer; the sanitizer runs
// afterwards and is the only safety boundary. Letting raw HTML through
// is what makes RenderAndSanitize idempotent on its own output.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// policy mirrors the classic UGC allow-list: structural and emphasis
// tags plus anchors restricted to href/title/rel over http(s). No
// scripts, no event handlers, everything else is stripped.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "abbr", "acronym", "blockquote",
		"b", "i", "strong", "em",
		"ul", "ol", "li",
		"pre", "code",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)
	p.AllowAttrs("href", "title", "rel").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowStandardURLs()
	return p
}()

// RenderAndSanitize converts markdown (with bare-URL autolinking) to
// HTML and strips every tag and attribute outside the allow-list. The
// transform is idempotent: feeding its output back through yields the
// same bytes.
func RenderAndSanitize(raw string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(raw), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

var titlePolicy = bluemonday.StrictPolicy()

// SanitizeTitle strips all markup from a title, leaving plain text.
func SanitizeTitle(raw string) string {
	return strings.TrimSpace(titlePolicy.Sanitize(raw))
}

// allowedExtensions is the fixed upload allow-list: images, video,
// audio, documents and spreadsheets.
var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"tiff": true, "tif": true, "svg": true,
	"mp4": true, "avi": true, "avchd": true, "mov": true,
	"flv": true, "wmv": true,
	"mp3": true, "m4a": true, "wav": true,
	"pdf": true, "txt": true, "html": true,
	"xls": true, "xlsx": true, "csv": true,
	"doc": true, "docs": true, "docx": true,
	"ods": true, "odt": true, "rtf": true,
}

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"tiff": true, "tif": true, "svg": true,
}

func extOf(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExtension reports whether filename carries an allow-listed
// suffix. Filenames without an extension are rejected.
func IsAllowedExtension(filename string) bool {
	ext := extOf(filename)
	return ext != "" && allowedExtensions[ext]
}

// IsImage reports whether filename looks like an image upload. Used to
// restrict avatars.
func IsImage(filename string) bool {
	return imageExtensions[extOf(filename)]
}
