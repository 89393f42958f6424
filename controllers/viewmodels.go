package controllers

import (
	"github.com/sgamb/yatut/models"
	"github.com/sgamb/yatut/repository"
)

// View models for the HTML pages. Every page gets an explicit struct built
// from repository results instead of an ad-hoc context map.

// Nav carries the data the shared page header needs.
type Nav struct {
	Authenticated bool
	Username      string
}

// AuthorCard is the profile sidebar contract: post and follow statistics for
// the author being viewed, plus whether the current visitor follows them.
type AuthorCard struct {
	Author         models.User
	PostCount      int64
	FollowerCount  int64
	FollowingCount int64
	Following      bool
}

// PostListPage backs the home timeline and the personal feed.
type PostListPage struct {
	Nav        Nav
	Title      string
	Posts      []models.Post
	Pagination repository.Pagination
}

// GroupPage backs the group listing.
type GroupPage struct {
	Nav        Nav
	Group      models.Group
	Posts      []models.Post
	Pagination repository.Pagination
}

// ProfilePage backs an author's profile.
type ProfilePage struct {
	Nav        Nav
	Card       AuthorCard
	Posts      []models.Post
	Pagination repository.Pagination
}

// PostPage backs the single post view with its comments and comment form.
type PostPage struct {
	Nav         Nav
	Card        AuthorCard
	Post        models.Post
	Comments    []models.Comment
	CommentForm CommentForm
}

// PostFormLabels is the reusable label/help-text contract for the post form.
type PostFormLabels struct {
	Text      string
	Group     string
	Image     string
	TextHelp  string
	GroupHelp string
}

// DefaultPostFormLabels matches the wording the product has always used.
func DefaultPostFormLabels() PostFormLabels {
	return PostFormLabels{
		Text:      "Текст",
		Group:     "Группа",
		Image:     "Картинка",
		TextHelp:  "Пишите, что захотите",
		GroupHelp: "Выберите группу (необязательно)",
	}
}

// PostFormPage backs both the new-post and the edit-post forms.
type PostFormPage struct {
	Nav      Nav
	Title    string
	Header   string
	Edit     bool
	Labels   PostFormLabels
	Groups   []models.Group
	Text     string
	GroupID  uint
	TextErr  string
	ImageErr string
	Action   string
}

// CommentForm holds the state of the inline comment form.
type CommentForm struct {
	Action string
}

// AuthFormPage backs the signup and login pages.
type AuthFormPage struct {
	Nav       Nav
	Title     string
	Next      string
	FirstName string
	LastName  string
	Username  string
	Email     string
	Errors    map[string]string
}

// ErrorPage backs the 404 and 500 pages.
type ErrorPage struct {
	Nav  Nav
	Path string
}

// StaticPage backs the about pages.
type StaticPage struct {
	Nav   Nav
	Title string
}
