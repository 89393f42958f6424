package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/config"
	"github.com/sgamb/yatut/repository"
	"github.com/sgamb/yatut/utils"
)

// TokenController issues and verifies the JWT pairs used by the API.
type TokenController struct {
	users *repository.Users
}

// NewTokenController creates a TokenController.
func NewTokenController(db *gorm.DB) *TokenController {
	return &TokenController{users: repository.NewUsers(db)}
}

// Create exchanges valid credentials for an access/refresh token pair.
func (t *TokenController) Create(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	user, err := t.users.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40140, "invalid credentials")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load user")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "invalid credentials")
		return
	}

	access, refresh, err := utils.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to issue tokens")
		return
	}
	utils.Success(ctx, gin.H{"access": access, "refresh": refresh})
}

// Refresh exchanges a valid refresh token for a fresh access token.
func (t *TokenController) Refresh(ctx *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	if utils.IsTokenBlacklisted(req.Refresh) {
		utils.Error(ctx, http.StatusUnauthorized, 40141, "token revoked")
		return
	}
	claims, err := utils.ParseTokenOfType(req.Refresh, utils.TokenTypeRefresh)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40142, "invalid refresh token")
		return
	}

	access, err := utils.GenerateToken(claims.UserID, claims.Username, utils.TokenTypeAccess, config.Get().AccessTokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"access": access})
}

// Verify answers whether a token is currently valid.
func (t *TokenController) Verify(ctx *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid request payload")
		return
	}
	if utils.IsTokenBlacklisted(req.Token) {
		utils.Error(ctx, http.StatusUnauthorized, 40143, "token revoked")
		return
	}
	if _, err := utils.ParseToken(req.Token); err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40144, "invalid token")
		return
	}
	utils.Success(ctx, gin.H{"valid": true})
}
