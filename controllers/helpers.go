package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sgamb/yatut/middleware"
)

// currentUserID extracts the authenticated user id placed into the context by
// the auth middlewares.
func currentUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func currentUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}

// pageParam reads the ?page= query parameter. Anything unparsable maps to
// page 1; out-of-range values are clamped later by the repository.
func pageParam(ctx *gin.Context) int {
	page, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam parses a numeric path parameter.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func nav(ctx *gin.Context) Nav {
	name := currentUsername(ctx)
	return Nav{Authenticated: name != "", Username: name}
}
