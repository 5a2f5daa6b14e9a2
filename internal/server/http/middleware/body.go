package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds callback payloads; gateway notifications are a few KiB.
const DefaultMaxBodyBytes int64 = 64 << 10

// RequestBody transparently decodes gzip bodies and caps the decoded size at maxBytes.
func RequestBody(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		if strings.Contains(c.GetHeader("Content-Encoding"), "gzip") {
			originalBody := c.Request.Body
			reader, err := gzip.NewReader(originalBody)
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			defer reader.Close()
			defer originalBody.Close()

			c.Request.Body = io.NopCloser(reader)
			c.Request.Header.Del("Content-Encoding")
			c.Request.ContentLength = -1
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
