package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sgamb/yatut/utils"
)

func cachedRouter(ttl time.Duration) (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := utils.NewMemoryStore()
	renders := 0
	r.GET("/", PageCache(store, ttl), func(ctx *gin.Context) {
		renders++
		ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf("render %d", renders)))
	})
	r.GET("/missing", PageCache(store, ttl), func(ctx *gin.Context) {
		renders++
		ctx.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("not found"))
	})
	return r, &renders
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPageCacheServesSamePageWithinTTL(t *testing.T) {
	r, renders := cachedRouter(time.Minute)

	first := get(r, "/")
	second := get(r, "/")
	if first.Body.String() != "render 1" || second.Body.String() != "render 1" {
		t.Fatalf("cached response differs: %q then %q", first.Body.String(), second.Body.String())
	}
	if *renders != 1 {
		t.Fatalf("handler ran %d times, want 1", *renders)
	}
	if ct := second.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("cached content type lost: %q", ct)
	}
}

func TestPageCacheExpiresAfterTTL(t *testing.T) {
	r, renders := cachedRouter(40 * time.Millisecond)

	get(r, "/")
	time.Sleep(80 * time.Millisecond)
	w := get(r, "/")
	if w.Body.String() != "render 2" {
		t.Fatalf("stale page served after TTL: %q", w.Body.String())
	}
	if *renders != 2 {
		t.Fatalf("handler ran %d times, want 2", *renders)
	}
}

func TestPageCacheKeyIncludesQuery(t *testing.T) {
	r, renders := cachedRouter(time.Minute)

	get(r, "/?page=1")
	get(r, "/?page=2")
	if *renders != 2 {
		t.Fatalf("pages with different queries shared a cache entry, renders=%d", *renders)
	}
	w := get(r, "/?page=1")
	if w.Body.String() != "render 1" {
		t.Fatalf("page=1 entry lost: %q", w.Body.String())
	}
}

func TestPageCacheSkipsNonOKResponses(t *testing.T) {
	r, renders := cachedRouter(time.Minute)

	get(r, "/missing")
	get(r, "/missing")
	if *renders != 2 {
		t.Fatalf("non-200 response was cached, renders=%d", *renders)
	}
}
