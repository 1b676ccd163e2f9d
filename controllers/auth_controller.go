package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

const githubAPIBase = "https://api.github.com"

// AuthController handles signup, login, logout, GitHub sign-in and API tokens.
type AuthController struct {
	users        *services.Users
	secret       string
	tokenTTL     time.Duration
	cookieSecure bool
	blacklist    *utils.TokenBlacklist
	states       *utils.StateStore
	captcha      *utils.Captcha
	github       *oauth2.Config
	githubAPI    string
}

// NewAuthController wires the auth pages. captcha may be nil to disable the signup captcha;
// GitHub sign-in is enabled only when client credentials are configured.
func NewAuthController(users *services.Users, cfg config.AppConfig, blacklist *utils.TokenBlacklist,
	states *utils.StateStore, captcha *utils.Captcha) *AuthController {
	a := &AuthController{
		users:        users,
		secret:       cfg.JWTSecret,
		tokenTTL:     time.Duration(cfg.TokenTTLHours) * time.Hour,
		cookieSecure: cfg.CookieSecure,
		blacklist:    blacklist,
		states:       states,
		captcha:      captcha,
		githubAPI:    githubAPIBase,
	}
	if a.tokenTTL <= 0 {
		a.tokenTTL = 72 * time.Hour
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		a.github = &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  strings.TrimRight(cfg.OAuthRedirectBase, "/") + "/auth/oauth/github/callback/",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}
	return a
}

// LoginPage shows the login form.
func (a *AuthController) LoginPage(ctx *gin.Context) {
	a.renderLogin(ctx, loginForm{Next: ctx.Query("next")}, nil)
}

// Login checks credentials and starts a cookie session.
func (a *AuthController) Login(ctx *gin.Context) {
	var form loginForm
	if errs := bindForm(ctx, &form); len(errs) > 0 {
		a.renderLogin(ctx, form, errs)
		return
	}
	user, err := a.users.Authenticate(ctx.Request.Context(), form.Username, form.Password)
	if fields, ok := validationFields(err); ok {
		a.renderLogin(ctx, form, fields)
		return
	}
	if err != nil {
		handleError(ctx, err)
		return
	}
	if err := a.startSession(ctx, user); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, safeRedirectTarget(form.Next, "/"))
}

// SignupPage shows the signup form.
func (a *AuthController) SignupPage(ctx *gin.Context) {
	a.renderSignup(ctx, signupForm{}, nil)
}

// Signup registers a password account and signs it in.
func (a *AuthController) Signup(ctx *gin.Context) {
	var form signupForm
	fieldErrs := bindForm(ctx, &form)
	if a.captcha != nil && !a.captcha.Verify(form.CaptchaID, form.Captcha) {
		fieldErrs = withField(fieldErrs, "captcha", "The code does not match the picture.")
	}
	if len(fieldErrs) > 0 {
		a.renderSignup(ctx, form, fieldErrs)
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), services.SignupInput{
		Username:  form.Username,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if fields, ok := validationFields(err); ok {
		a.renderSignup(ctx, form, fields)
		return
	}
	if err != nil {
		handleError(ctx, err)
		return
	}
	utils.Sugar.Infow("user signed up", "user_id", user.ID, "username", user.Username)
	if err := a.startSession(ctx, user); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// Logout revokes the current token until it would have expired and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token := ctx.GetString(middleware.ContextTokenKey); token != "" {
		expiresAt := time.Now().Add(a.tokenTTL)
		if claims, err := utils.ParseToken(a.secret, token); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		if err := a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt); err != nil {
			utils.Sugar.Warnf("revoke token failed: %v", err)
		}
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", a.cookieSecure, true)
	ctx.Redirect(http.StatusFound, "/")
}

// GitHubLogin sends the browser to GitHub with a single-use state.
func (a *AuthController) GitHubLogin(ctx *gin.Context) {
	if a.github == nil {
		RenderError(ctx, http.StatusNotFound)
		return
	}
	state, err := a.states.Issue(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, a.github.AuthCodeURL(state))
}

// GitHubCallback exchanges the code, links or creates the account and signs it in.
func (a *AuthController) GitHubCallback(ctx *gin.Context) {
	if a.github == nil {
		RenderError(ctx, http.StatusNotFound)
		return
	}
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || !a.states.Consume(ctx.Request.Context(), state) {
		utils.Sugar.Warnw("github callback rejected", "has_code", code != "", "ip", ctx.ClientIP())
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	reqCtx := ctx.Request.Context()
	token, err := a.github.Exchange(reqCtx, code)
	if err != nil {
		utils.Sugar.Warnf("github code exchange failed: %v", err)
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}
	profile, err := a.fetchGitHubProfile(reqCtx, token)
	if err != nil {
		handleError(ctx, err)
		return
	}
	user, err := a.users.UpsertOAuth(reqCtx, *profile)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if err := a.startSession(ctx, user); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// IssueToken exchanges username/password for a bearer token.
func (a *AuthController) IssueToken(ctx *gin.Context) {
	var req loginForm
	if errs := bindJSON(ctx, &req); len(errs) > 0 {
		utils.ErrorWithData(ctx, http.StatusBadRequest, utils.CodeBadRequest, "invalid request payload", errs)
		return
	}
	user, err := a.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if _, invalid := validationFields(err); invalid {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeInvalidLogin, "invalid username or password")
		return
	}
	if err != nil {
		utils.Sugar.Errorf("authenticate failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to authenticate")
		return
	}
	token, err := utils.GenerateToken(a.secret, user.ID, user.Username, a.tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_in": int(a.tokenTTL.Seconds()),
		"user":       user,
	})
}

func (a *AuthController) startSession(ctx *gin.Context, user *models.User) error {
	token, err := utils.GenerateToken(a.secret, user.ID, user.Username, a.tokenTTL)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, token, int(a.tokenTTL.Seconds()), "/", "", a.cookieSecure, true)
	return nil
}

func (a *AuthController) renderLogin(ctx *gin.Context, form loginForm, errs map[string]string) {
	render(ctx, http.StatusOK, "login.html", "Log in", gin.H{
		"form":          form,
		"errors":        errs,
		"next":          safeRedirectTarget(form.Next, ""),
		"githubEnabled": a.github != nil,
	})
}

func (a *AuthController) renderSignup(ctx *gin.Context, form signupForm, errs map[string]string) {
	data := gin.H{"form": form, "errors": errs}
	if a.captcha != nil {
		id, image, err := a.captcha.Generate()
		if err != nil {
			handleError(ctx, err)
			return
		}
		data["captchaID"] = id
		data["captchaImage"] = image
	}
	render(ctx, http.StatusOK, "signup.html", "Sign up", data)
}

func (a *AuthController) fetchGitHubProfile(ctx context.Context, token *oauth2.Token) (*services.OAuthProfile, error) {
	client := a.github.Client(ctx, token)

	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, a.githubAPI+"/user", &payload); err != nil {
		return nil, fmt.Errorf("github user: %w", err)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	var email string
	if err := getJSON(ctx, client, a.githubAPI+"/user/emails", &emails); err != nil {
		utils.Sugar.Debugf("github emails unavailable: %v", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}

	return &services.OAuthProfile{
		Provider:   "github",
		ProviderID: strconv.FormatInt(payload.ID, 10),
		Login:      payload.Login,
		Name:       payload.Name,
		Email:      email,
		AvatarURL:  payload.AvatarURL,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
