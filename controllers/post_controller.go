package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/config"
	"github.com/sgamb/yatut/models"
	"github.com/sgamb/yatut/repository"
	"github.com/sgamb/yatut/utils"
)

// PostController serves the /api/v1/posts endpoints including the nested
// comments collection.
type PostController struct {
	posts    *repository.Posts
	comments *repository.Comments
	groups   *repository.Groups
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{
		posts:    repository.NewPosts(db),
		comments: repository.NewComments(db),
		groups:   repository.NewGroups(db),
	}
}

// ListPosts returns paginated posts, optionally filtered by group slug.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page := pageParam(ctx)
	slug := strings.TrimSpace(ctx.Query("group"))

	var (
		posts      []models.Post
		pagination repository.Pagination
		err        error
	)
	if slug != "" {
		_, posts, pagination, err = p.posts.ListByGroup(slug, page)
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "group not found")
			return
		}
	} else {
		posts, pagination, err = p.posts.ListAll(page)
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      posts,
		"pagination": pagination,
	})
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}
	post, err := p.posts.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

type postRequest struct {
	Text  string `json:"text" form:"text"`
	Group *uint  `json:"group" form:"group"`
}

// CreatePost creates a post for the authenticated user. The body is JSON, or
// multipart form data when an image is attached.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	req, imagePath, ok := p.bindPostRequest(ctx)
	if !ok {
		return
	}

	post := models.Post{
		AuthorID: userID,
		Text:     utils.Sanitize(req.Text),
		GroupID:  req.Group,
		Image:    imagePath,
	}
	if err := p.posts.Create(&post); err != nil {
		if errors.Is(err, repository.ErrEmptyText) {
			utils.Error(ctx, http.StatusBadRequest, 40021, "text cannot be empty")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	created, err := p.posts.GetByID(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"post": created})
}

// UpdatePost rewrites a post. PUT requires text; PATCH keeps omitted fields.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	text := utils.Sanitize(req.Text)
	groupID := req.Group
	if ctx.Request.Method == http.MethodPatch {
		if strings.TrimSpace(req.Text) == "" {
			text = post.Text
		}
		if req.Group == nil {
			groupID = post.GroupID
		}
	}

	if err := p.posts.Update(&post, text, groupID, ""); err != nil {
		if errors.Is(err, repository.ErrEmptyText) {
			utils.Error(ctx, http.StatusBadRequest, 40025, "text cannot be empty")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	updated, err := p.posts.GetByID(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}
	utils.Success(ctx, gin.H{"post": updated})
}

// DeletePost removes a post; only the author may do so.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	if err := p.posts.Delete(post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// ListComments returns a post's comments oldest-first.
func (p *PostController) ListComments(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	comments, err := p.comments.ListByPost(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list comments")
		return
	}
	utils.Success(ctx, gin.H{"items": comments})
}

// CreateComment appends a comment to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: userID,
		Text:     utils.Sanitize(req.Text),
	}
	if err := p.comments.Create(&comment); err != nil {
		if errors.Is(err, repository.ErrEmptyText) {
			utils.Error(ctx, http.StatusBadRequest, 40023, "text cannot be empty")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}

	created, err := p.comments.GetByID(comment.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comment")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"comment": created})
}

// GetComment returns one comment of a post.
func (p *PostController) GetComment(ctx *gin.Context) {
	comment, ok := p.loadComment(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment rewrites a comment; only its author may do so.
func (p *PostController) UpdateComment(ctx *gin.Context) {
	comment, ok := p.ownedComment(ctx)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid request payload")
		return
	}
	if err := p.comments.Update(&comment, utils.Sanitize(req.Text)); err != nil {
		if errors.Is(err, repository.ErrEmptyText) {
			utils.Error(ctx, http.StatusBadRequest, 40027, "text cannot be empty")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update comment")
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment; only its author may do so.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	comment, ok := p.ownedComment(ctx)
	if !ok {
		return
	}
	if err := p.comments.Delete(comment.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func (p *PostController) bindPostRequest(ctx *gin.Context) (postRequest, string, bool) {
	var req postRequest
	contentType := ctx.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := ctx.ShouldBind(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
			return postRequest{}, "", false
		}
		imagePath := ""
		if header, err := ctx.FormFile("image"); err == nil {
			path, err := utils.SaveImage(header, config.Get().MediaRoot)
			if err != nil {
				utils.Error(ctx, http.StatusBadRequest, 40028, "invalid image upload")
				return postRequest{}, "", false
			}
			imagePath = path
		}
		return req, imagePath, true
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return postRequest{}, "", false
	}
	return req, "", true
}

func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	id, ok := idParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return models.Post{}, false
	}
	post, err := p.posts.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return models.Post{}, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return models.Post{}, false
	}
	return post, true
}

// ownedPost loads the addressed post and enforces the author-only rule for
// API writes: unlike the web surface this is an explicit 403.
func (p *PostController) ownedPost(ctx *gin.Context) (models.Post, bool) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return models.Post{}, false
	}
	userID, authed := currentUserID(ctx)
	if !authed {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return models.Post{}, false
	}
	if post.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only modify your own posts")
		return models.Post{}, false
	}
	return post, true
}

func (p *PostController) loadComment(ctx *gin.Context) (models.Comment, bool) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return models.Comment{}, false
	}
	commentID, ok := idParam(ctx, "comment_id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		return models.Comment{}, false
	}
	comment, err := p.comments.GetByID(commentID)
	if err != nil || comment.PostID != post.ID {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
			return models.Comment{}, false
		}
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		return models.Comment{}, false
	}
	return comment, true
}

func (p *PostController) ownedComment(ctx *gin.Context) (models.Comment, bool) {
	comment, ok := p.loadComment(ctx)
	if !ok {
		return models.Comment{}, false
	}
	userID, authed := currentUserID(ctx)
	if !authed {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return models.Comment{}, false
	}
	if comment.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only modify your own comment")
		return models.Comment{}, false
	}
	return comment, true
}
