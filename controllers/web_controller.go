package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/config"
	"github.com/sgamb/yatut/models"
	"github.com/sgamb/yatut/repository"
	"github.com/sgamb/yatut/utils"
)

// WebController renders the HTML pages: timelines, profiles, post forms and
// the follow toggles.
type WebController struct {
	posts    *repository.Posts
	groups   *repository.Groups
	comments *repository.Comments
	follows  *repository.Follows
	users    *repository.Users
}

// NewWebController creates a WebController over the shared database handle.
func NewWebController(db *gorm.DB) *WebController {
	return &WebController{
		posts:    repository.NewPosts(db),
		groups:   repository.NewGroups(db),
		comments: repository.NewComments(db),
		follows:  repository.NewFollows(db),
		users:    repository.NewUsers(db),
	}
}

// Index renders the home timeline. The route is wrapped by the page cache, so
// within the TTL window every visitor sees the same rendered page.
func (w *WebController) Index(ctx *gin.Context) {
	posts, pagination, err := w.posts.ListAll(pageParam(ctx))
	if err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "index.html", PostListPage{
		Nav:        nav(ctx),
		Title:      "Последние обновления",
		Posts:      posts,
		Pagination: pagination,
	})
}

// GroupPosts renders a group's timeline; unknown slugs are a 404.
func (w *WebController) GroupPosts(ctx *gin.Context) {
	slug := ctx.Param("slug")
	group, posts, pagination, err := w.posts.ListByGroup(slug, pageParam(ctx))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.NotFound(ctx)
			return
		}
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "group.html", GroupPage{
		Nav:        nav(ctx),
		Group:      group,
		Posts:      posts,
		Pagination: pagination,
	})
}

// Profile renders an author's page with the author card statistics.
func (w *WebController) Profile(ctx *gin.Context) {
	username := ctx.Param("username")
	author, posts, pagination, err := w.posts.ListByAuthor(username, pageParam(ctx))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.NotFound(ctx)
			return
		}
		w.ServerError(ctx)
		return
	}
	card, err := w.authorCard(ctx, author)
	if err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "profile.html", ProfilePage{
		Nav:        nav(ctx),
		Card:       card,
		Posts:      posts,
		Pagination: pagination,
	})
}

// PostView renders a single post with its comments. The post id is scoped
// under the author's username, so a mismatched pair is a 404.
func (w *WebController) PostView(ctx *gin.Context) {
	username := ctx.Param("username")
	postID, ok := idParam(ctx, "post_id")
	if !ok {
		w.NotFound(ctx)
		return
	}
	post, err := w.posts.GetByAuthorAndID(username, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.NotFound(ctx)
			return
		}
		w.ServerError(ctx)
		return
	}
	comments, err := w.comments.ListByPost(post.ID)
	if err != nil {
		w.ServerError(ctx)
		return
	}
	card, err := w.authorCard(ctx, post.Author)
	if err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "post.html", PostPage{
		Nav:      nav(ctx),
		Card:     card,
		Post:     post,
		Comments: comments,
		CommentForm: CommentForm{
			Action: fmt.Sprintf("/%s/%d/comment", username, post.ID),
		},
	})
}

// NewPostForm renders the empty post form.
func (w *WebController) NewPostForm(ctx *gin.Context) {
	groups, err := w.groups.All()
	if err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "post_form.html", PostFormPage{
		Nav:    nav(ctx),
		Title:  "Новая запись",
		Header: "Добавить запись",
		Labels: DefaultPostFormLabels(),
		Groups: groups,
		Action: "/new",
	})
}

// CreatePost handles the post form submit. An empty text re-renders the form
// with a field error and HTTP 200; success redirects to the home timeline.
func (w *WebController) CreatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login?next=/new")
		return
	}

	text := utils.Sanitize(ctx.PostForm("text"))
	groupID := parseGroupID(ctx.PostForm("group"))

	imagePath, imageErr := w.saveImageIfAny(ctx)
	if strings.TrimSpace(text) == "" || imageErr != "" {
		w.rerenderPostForm(ctx, PostFormPage{
			Title:    "Новая запись",
			Header:   "Добавить запись",
			Text:     text,
			GroupID:  deref(groupID),
			ImageErr: imageErr,
			Action:   "/new",
		})
		return
	}

	post := models.Post{
		AuthorID: userID,
		Text:     text,
		GroupID:  groupID,
		Image:    imagePath,
	}
	if err := w.posts.Create(&post); err != nil {
		if errors.Is(err, repository.ErrEmptyText) {
			w.rerenderPostForm(ctx, PostFormPage{
				Title:  "Новая запись",
				Header: "Добавить запись",
				Action: "/new",
			})
			return
		}
		w.ServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// EditPostForm renders the edit form. Only the author may edit; anyone else
// is sent back to the post view with nothing changed.
func (w *WebController) EditPostForm(ctx *gin.Context) {
	post, redirectURL, ok := w.editablePost(ctx)
	if !ok {
		if redirectURL != "" {
			ctx.Redirect(http.StatusFound, redirectURL)
		}
		return
	}
	groups, err := w.groups.All()
	if err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "post_form.html", PostFormPage{
		Nav:     nav(ctx),
		Title:   "Редактировать запись",
		Header:  "Редактировать запись",
		Edit:    true,
		Labels:  DefaultPostFormLabels(),
		Groups:  groups,
		Text:    post.Text,
		GroupID: deref(post.GroupID),
		Action:  fmt.Sprintf("/%s/%d/edit", post.Author.Username, post.ID),
	})
}

// UpdatePost handles the edit form submit with the same author-only rule.
func (w *WebController) UpdatePost(ctx *gin.Context) {
	post, redirectURL, ok := w.editablePost(ctx)
	if !ok {
		if redirectURL != "" {
			ctx.Redirect(http.StatusFound, redirectURL)
		}
		return
	}

	text := utils.Sanitize(ctx.PostForm("text"))
	groupID := parseGroupID(ctx.PostForm("group"))
	imagePath, imageErr := w.saveImageIfAny(ctx)
	action := fmt.Sprintf("/%s/%d/edit", post.Author.Username, post.ID)

	if strings.TrimSpace(text) == "" || imageErr != "" {
		w.rerenderPostForm(ctx, PostFormPage{
			Title:    "Редактировать запись",
			Header:   "Редактировать запись",
			Edit:     true,
			Text:     text,
			GroupID:  deref(groupID),
			ImageErr: imageErr,
			Action:   action,
		})
		return
	}

	if err := w.posts.Update(&post, text, groupID, imagePath); err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/%s/%d", post.Author.Username, post.ID))
}

// AddComment appends a comment and returns to the post view. An empty text
// simply redirects back without creating anything.
func (w *WebController) AddComment(ctx *gin.Context) {
	username := ctx.Param("username")
	postID, ok := idParam(ctx, "post_id")
	if !ok {
		w.NotFound(ctx)
		return
	}
	userID, authed := currentUserID(ctx)
	if !authed {
		ctx.Redirect(http.StatusFound, "/auth/login?next="+ctx.Request.URL.Path)
		return
	}
	post, err := w.posts.GetByAuthorAndID(username, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.NotFound(ctx)
			return
		}
		w.ServerError(ctx)
		return
	}

	text := utils.Sanitize(ctx.PostForm("text"))
	comment := models.Comment{PostID: post.ID, AuthorID: userID, Text: text}
	if err := w.comments.Create(&comment); err != nil && !errors.Is(err, repository.ErrEmptyText) {
		w.ServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/%s/%d", username, post.ID))
}

// FollowIndex renders the personal feed: posts by everyone the visitor follows.
func (w *WebController) FollowIndex(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login?next=/follow")
		return
	}
	posts, pagination, err := w.posts.ListFeed(userID, pageParam(ctx))
	if err != nil {
		w.ServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "follow.html", PostListPage{
		Nav:        nav(ctx),
		Title:      "Избранные авторы",
		Posts:      posts,
		Pagination: pagination,
	})
}

// FollowAuthor adds a follow edge and returns to the profile. Self-follow and
// an already existing edge are silent no-ops here; the repository still
// refuses them for any other caller.
func (w *WebController) FollowAuthor(ctx *gin.Context) {
	w.toggleFollow(ctx, true)
}

// UnfollowAuthor removes the follow edge. Removing a missing edge is treated
// as already done.
func (w *WebController) UnfollowAuthor(ctx *gin.Context) {
	w.toggleFollow(ctx, false)
}

func (w *WebController) toggleFollow(ctx *gin.Context, follow bool) {
	username := ctx.Param("username")
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login?next="+ctx.Request.URL.Path)
		return
	}
	author, err := w.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.NotFound(ctx)
			return
		}
		w.ServerError(ctx)
		return
	}

	if follow {
		err = w.follows.Follow(userID, author.ID)
		if err != nil && !errors.Is(err, repository.ErrSelfFollow) && !errors.Is(err, repository.ErrDuplicateFollow) {
			w.ServerError(ctx)
			return
		}
	} else {
		err = w.follows.Unfollow(userID, author.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			w.ServerError(ctx)
			return
		}
	}
	ctx.Redirect(http.StatusFound, "/"+username)
}

// AboutAuthor renders the static author page.
func (w *WebController) AboutAuthor(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "about_author.html", StaticPage{Nav: nav(ctx), Title: "Об авторе"})
}

// AboutTech renders the static technology page.
func (w *WebController) AboutTech(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "about_tech.html", StaticPage{Nav: nav(ctx), Title: "Технологии"})
}

// NotFound renders the 404 page.
func (w *WebController) NotFound(ctx *gin.Context) {
	ctx.HTML(http.StatusNotFound, "404.html", ErrorPage{Nav: nav(ctx), Path: ctx.Request.URL.Path})
}

// ServerError renders the 500 page.
func (w *WebController) ServerError(ctx *gin.Context) {
	ctx.HTML(http.StatusInternalServerError, "500.html", ErrorPage{Nav: nav(ctx), Path: ctx.Request.URL.Path})
}

// editablePost loads the post addressed by the route and checks the author
// rule. The third return is false when the caller should stop; a non-empty
// redirectURL points the non-author back to the canonical post view.
func (w *WebController) editablePost(ctx *gin.Context) (models.Post, string, bool) {
	username := ctx.Param("username")
	postID, ok := idParam(ctx, "post_id")
	if !ok {
		w.NotFound(ctx)
		return models.Post{}, "", false
	}
	post, err := w.posts.GetByAuthorAndID(username, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.NotFound(ctx)
		} else {
			w.ServerError(ctx)
		}
		return models.Post{}, "", false
	}
	userID, authed := currentUserID(ctx)
	if !authed {
		return models.Post{}, "/auth/login?next=" + ctx.Request.URL.Path, false
	}
	if userID != post.AuthorID {
		return models.Post{}, fmt.Sprintf("/%s/%d", username, post.ID), false
	}
	return post, "", true
}

func (w *WebController) authorCard(ctx *gin.Context, author models.User) (AuthorCard, error) {
	postCount, err := w.posts.CountByAuthor(author.ID)
	if err != nil {
		return AuthorCard{}, err
	}
	followerCount, err := w.follows.FollowerCount(author.ID)
	if err != nil {
		return AuthorCard{}, err
	}
	followingCount, err := w.follows.FollowingCount(author.ID)
	if err != nil {
		return AuthorCard{}, err
	}
	following := false
	if userID, ok := currentUserID(ctx); ok {
		following, err = w.follows.IsFollowing(userID, author.ID)
		if err != nil {
			return AuthorCard{}, err
		}
	}
	return AuthorCard{
		Author:         author,
		PostCount:      postCount,
		FollowerCount:  followerCount,
		FollowingCount: followingCount,
		Following:      following,
	}, nil
}

func (w *WebController) rerenderPostForm(ctx *gin.Context, page PostFormPage) {
	groups, err := w.groups.All()
	if err != nil {
		w.ServerError(ctx)
		return
	}
	page.Nav = nav(ctx)
	page.Labels = DefaultPostFormLabels()
	page.Groups = groups
	if strings.TrimSpace(page.Text) == "" {
		page.TextErr = "Обязательное поле."
	}
	ctx.HTML(http.StatusOK, "post_form.html", page)
}

// saveImageIfAny stores an uploaded image when the form carries one. The
// second return is a user-facing error message, empty on success.
func (w *WebController) saveImageIfAny(ctx *gin.Context) (string, string) {
	header, err := ctx.FormFile("image")
	if err != nil {
		// No file attached.
		return "", ""
	}
	path, err := utils.SaveImage(header, config.Get().MediaRoot)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return "", "Загрузите корректное изображение."
		}
		return "", "Не удалось сохранить изображение."
	}
	return path, ""
}

func parseGroupID(value string) *uint {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return nil
	}
	u := uint(id)
	return &u
}

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
