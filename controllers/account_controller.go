package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/config"
	"github.com/sgamb/yatut/models"
	"github.com/sgamb/yatut/repository"
	"github.com/sgamb/yatut/utils"
)

// AccountController handles web registration, login and logout. Sessions are
// a JWT stored in an http-only cookie, so the same token machinery backs both
// surfaces.
type AccountController struct {
	users *repository.Users
}

// NewAccountController creates an AccountController.
func NewAccountController(db *gorm.DB) *AccountController {
	return &AccountController{users: repository.NewUsers(db)}
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{2,64}$`)

// SignupForm renders the registration page.
func (a *AccountController) SignupForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "signup.html", AuthFormPage{
		Nav:   nav(ctx),
		Title: "Регистрация",
	})
}

// Signup creates an account. Validation problems re-render the form with
// field errors and HTTP 200; success sends the visitor to the login page.
func (a *AccountController) Signup(ctx *gin.Context) {
	page := AuthFormPage{
		Nav:       nav(ctx),
		Title:     "Регистрация",
		FirstName: strings.TrimSpace(ctx.PostForm("first_name")),
		LastName:  strings.TrimSpace(ctx.PostForm("last_name")),
		Username:  strings.TrimSpace(ctx.PostForm("username")),
		Email:     strings.TrimSpace(ctx.PostForm("email")),
		Errors:    map[string]string{},
	}
	password1 := ctx.PostForm("password1")
	password2 := ctx.PostForm("password2")

	if page.Username == "" {
		page.Errors["username"] = "Обязательное поле."
	} else if !usernameRe.MatchString(page.Username) {
		page.Errors["username"] = "Допустимы буквы, цифры и символы _ . -"
	} else if taken, err := a.users.UsernameTaken(page.Username); err != nil {
		utils.Sugar.Errorf("signup username check: %v", err)
		page.Errors["username"] = "Попробуйте ещё раз."
	} else if taken {
		page.Errors["username"] = "Пользователь с таким именем уже существует."
	}

	if len(password1) < 6 {
		page.Errors["password1"] = "Пароль должен быть не короче 6 символов."
	} else if password1 != password2 {
		page.Errors["password2"] = "Пароли не совпадают."
	}

	if len(page.Errors) > 0 {
		ctx.HTML(http.StatusOK, "signup.html", page)
		return
	}

	hash, err := utils.HashPassword(password1)
	if err != nil {
		utils.Sugar.Errorf("signup hash: %v", err)
		page.Errors["password1"] = "Попробуйте ещё раз."
		ctx.HTML(http.StatusOK, "signup.html", page)
		return
	}

	user := models.User{
		Username:     page.Username,
		FirstName:    page.FirstName,
		LastName:     page.LastName,
		Email:        page.Email,
		PasswordHash: hash,
	}
	if err := a.users.Create(&user); err != nil {
		utils.Sugar.Errorf("signup create: %v", err)
		page.Errors["username"] = "Не удалось создать пользователя."
		ctx.HTML(http.StatusOK, "signup.html", page)
		return
	}

	ctx.Redirect(http.StatusFound, "/auth/login")
}

// LoginForm renders the login page, keeping the `next` destination.
func (a *AccountController) LoginForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.html", AuthFormPage{
		Nav:   nav(ctx),
		Title: "Войти",
		Next:  ctx.Query("next"),
	})
}

// Login verifies credentials and opens a session. On success the visitor
// continues to `next` or the home timeline.
func (a *AccountController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")
	next := sanitizeNext(ctx.PostForm("next"))

	page := AuthFormPage{
		Nav:      nav(ctx),
		Title:    "Войти",
		Username: username,
		Next:     next,
		Errors:   map[string]string{},
	}

	user, err := a.users.GetByUsername(username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			utils.Sugar.Errorf("login lookup: %v", err)
		}
		page.Errors["username"] = "Неверное имя пользователя или пароль."
		ctx.HTML(http.StatusOK, "login.html", page)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		page.Errors["username"] = "Неверное имя пользователя или пароль."
		ctx.HTML(http.StatusOK, "login.html", page)
		return
	}

	cfg := config.Get()
	// The session cookie lives as long as a refresh token would.
	token, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTypeAccess, cfg.RefreshTokenTTL())
	if err != nil {
		utils.Sugar.Errorf("login token: %v", err)
		page.Errors["username"] = "Попробуйте ещё раз."
		ctx.HTML(http.StatusOK, "login.html", page)
		return
	}

	maxAge := int(cfg.RefreshTokenTTL() / time.Second)
	ctx.SetCookie(cfg.SessionCookieName, token, maxAge, "/", "", cfg.SecureCookies, true)
	if next == "" {
		next = "/"
	}
	ctx.Redirect(http.StatusFound, next)
}

// Logout revokes the session token and clears the cookie.
func (a *AccountController) Logout(ctx *gin.Context) {
	cfg := config.Get()
	if token, err := ctx.Cookie(cfg.SessionCookieName); err == nil && token != "" {
		if claims, err := utils.ParseToken(token); err == nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	ctx.SetCookie(cfg.SessionCookieName, "", -1, "/", "", cfg.SecureCookies, true)
	ctx.HTML(http.StatusOK, "logged_out.html", StaticPage{Nav: Nav{}, Title: "Вы вышли"})
}

// sanitizeNext keeps redirects on this site: only absolute paths pass.
func sanitizeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
