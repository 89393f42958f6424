package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sgamb/yatut/utils"
)

// bodyCapture duplicates everything written to the response so a successful
// render can be stored afterwards.
type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PageCache serves a fully rendered page from the store while its TTL lasts.
// The key is the request path plus raw query, so every page number of a
// paginated listing caches independently. Writes never invalidate an entry;
// staleness is bounded only by the TTL.
func PageCache(store utils.CacheStore, ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := cacheKey(ctx)
		if entry, ok := store.Get(key); ok {
			ctx.Data(http.StatusOK, entry.ContentType, entry.Body)
			ctx.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: ctx.Writer}
		ctx.Writer = capture
		ctx.Next()

		if capture.Status() != http.StatusOK {
			return
		}
		store.Set(key, utils.Entry{
			ContentType: capture.Header().Get("Content-Type"),
			Body:        append([]byte(nil), capture.body.Bytes()...),
		}, ttl)
	}
}

func cacheKey(ctx *gin.Context) string {
	key := "pagecache:" + ctx.Request.URL.Path
	if q := ctx.Request.URL.RawQuery; q != "" {
		key += "?" + q
	}
	return key
}
