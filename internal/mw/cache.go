package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware for in-memory caching of GET responses. Requests sent
// with "Cache-Control: no-cache" bypass the stored copy and refresh it.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if c.GetHeader("Cache-Control") != "no-cache" {
			if resp, found := store.Get(key); found {
				cached := resp.(cachedResponse)
				for k, v := range cached.headers {
					// CORS headers belong to the current request's origin.
					if strings.HasPrefix(k, "Access-Control-") {
						continue
					}
					c.Writer.Header()[k] = v
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Writer.WriteHeader(cached.status)
				_, _ = c.Writer.Write(cached.body)
				c.Abort()
				return
			}
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			store.Set(key, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}, duration)
		}
	}
}
