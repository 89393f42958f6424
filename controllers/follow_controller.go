package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/repository"
	"github.com/sgamb/yatut/utils"
)

// FollowController serves the /api/v1/follow endpoints.
type FollowController struct {
	follows *repository.Follows
	users   *repository.Users
}

// NewFollowController creates a FollowController.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{
		follows: repository.NewFollows(db),
		users:   repository.NewUsers(db),
	}
}

// ListFollows returns the authors the authenticated user follows.
func (f *FollowController) ListFollows(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	authors, err := f.follows.ListAuthors(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list follows")
		return
	}
	utils.Success(ctx, gin.H{"items": authors})
}

// CreateFollow adds an edge towards the author named in the body. Self-follow
// and duplicates are client errors, never silent writes.
func (f *FollowController) CreateFollow(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	var req struct {
		Author string `json:"author" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	author, err := f.users.GetByUsername(strings.TrimSpace(req.Author))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "author not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load author")
		return
	}

	if err := f.follows.Follow(userID, author.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSelfFollow):
			utils.Error(ctx, http.StatusBadRequest, 40051, "cannot follow yourself")
		case errors.Is(err, repository.ErrDuplicateFollow):
			utils.Error(ctx, http.StatusBadRequest, 40052, "already following this author")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to create follow")
		}
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"author": author.Username})
}

// DeleteFollow removes the edge towards the author in the path. A missing
// edge is a 404, matching the lookup semantics of the rest of the API.
func (f *FollowController) DeleteFollow(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	author, err := f.users.GetByUsername(ctx.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "author not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load author")
		return
	}

	if err := f.follows.Unfollow(userID, author.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40441, "follow not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to delete follow")
		return
	}
	utils.Success(ctx, gin.H{"message": "unfollowed"})
}
