package cache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc derives the cache key for a request. Returning "" skips
// caching for that request.
type KeyFunc func(c *gin.Context) string

type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Page is the read-through middleware for cached GET routes. On a hit
// it serves the stored body and aborts the chain; on a miss it lets
// the handler run, capturing a 200 response for the next reader.
func Page(store Store, ttl time.Duration, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		if body, ok := store.Get(key); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		if capture.Status() == http.StatusOK {
			store.Set(key, capture.buf.Bytes(), ttl)
		}
	}
}
