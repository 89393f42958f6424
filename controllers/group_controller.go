package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/repository"
	"github.com/sgamb/yatut/utils"
)

// GroupController serves the read-only /api/v1/groups endpoints.
type GroupController struct {
	groups *repository.Groups
}

// NewGroupController creates a GroupController.
func NewGroupController(db *gorm.DB) *GroupController {
	return &GroupController{groups: repository.NewGroups(db)}
}

// ListGroups returns paginated groups.
func (g *GroupController) ListGroups(ctx *gin.Context) {
	groups, pagination, err := g.groups.List(pageParam(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list groups")
		return
	}
	utils.Success(ctx, gin.H{
		"items":      groups,
		"pagination": pagination,
	})
}

// GetGroup returns a single group by id.
func (g *GroupController) GetGroup(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40430, "group not found")
		return
	}
	group, err := g.groups.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "group not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load group")
		return
	}
	utils.Success(ctx, gin.H{"group": group})
}
