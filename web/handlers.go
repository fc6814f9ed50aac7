// Package web serves the server-rendered frontend. Every page talks to the
// backend through the same GraphQL schema the API exposes, using an in-process
// Client, and keeps the current user in a per-session cache.
package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/graph"
	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/session"
)

// PageSize is the number of posts on one page of the home page.
const PageSize = 10

const (
	pageHome           = "home.html"
	pageLogin          = "login.html"
	pageRegister       = "register.html"
	pageForgotPassword = "forgot_password.html"
	pageChangePassword = "change_password.html"
	pageCreatePost     = "create_post.html"
)

// Handler serves the frontend pages.
type Handler struct {
	client *Client
	cache  *MeCache
	pages  map[string]*template.Template
	log    logging.Logger
}

// NewHandler parses the page templates and returns a ready Handler.
func NewHandler(client *Client, cache *MeCache, log logging.Logger) (*Handler, error) {
	pages, err := parsePages(pageHome, pageLogin, pageRegister, pageForgotPassword, pageChangePassword, pageCreatePost)
	if err != nil {
		return nil, apperror.NewConfigError("failed to parse page templates", err)
	}
	return &Handler{client: client, cache: cache, pages: pages, log: log}, nil
}

// RegisterRoutes mounts the pages on router. The router must run the session
// middleware and graph.ContextMiddleware first.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.home)
	router.Get("/login", h.loginPage)
	router.Post("/login", h.login)
	router.Get("/register", h.registerPage)
	router.Post("/register", h.register)
	router.Post("/logout", h.logout)
	router.Get("/forgot-password", h.forgotPasswordPage)
	router.Post("/forgot-password", h.forgotPassword)
	router.Get("/change-password/{token}", h.changePasswordPage)
	router.Post("/change-password/{token}", h.changePassword)
	router.Get("/create-post", h.createPostPage)
	router.Post("/create-post", h.createPost)
}

// cacheKey identifies the me cache entry of the request's session. It
// includes the user id, so a login that changes who the session belongs to
// never reads the previous user's entry.
func cacheKey(r *http.Request) string {
	sess := session.FromContext(r.Context())
	if sess == nil || sess.ID() == "" {
		return ""
	}
	userID, _ := sess.UserID()
	return sess.ID() + ":" + strconv.Itoa(userID)
}

func (h *Handler) logger(r *http.Request) logging.Logger {
	if rc := graph.RequestContextFrom(r.Context()); rc != nil && rc.Logger != nil {
		return rc.Logger
	}
	return h.log
}

// me returns the current user, from the cache when possible.
func (h *Handler) me(r *http.Request) (*User, error) {
	key := cacheKey(r)
	if u, ok := h.cache.Get(key); ok {
		return u, nil
	}

	var data struct {
		Me *User `json:"me"`
	}
	if err := h.client.Do(r.Context(), meQuery, nil, &data); err != nil {
		return nil, err
	}
	h.cache.Set(key, data.Me)
	return data.Me, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	if data.Me == nil {
		me, err := h.me(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		data.Me = me
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger(r).Error(r.Context(), "failed to render page", "page", page, "error", err)
	}
}

// fail is the response interceptor every page funnels errors through. An
// auth-gate failure sends the browser to the login page, which returns here
// after logging in. Client errors are shown as plain text with their own
// status and everything else becomes a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if IsNotAuthenticated(err) {
		redirectToLogin(w, r)
		return
	}

	if appErr, ok := apperror.FromError(err); ok && appErr.Public() {
		http.Error(w, appErr.Message, appErr.StatusCode())
		return
	}
	var gqlErr *Error
	if errors.As(err, &gqlErr) && gqlErr.Public() {
		http.Error(w, strings.Join(gqlErr.Messages, "\n"), gqlErr.Status)
		return
	}

	h.logger(r).Error(r.Context(), "page request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// parseForm reports a malformed body through fail.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.NewBadRequestError("invalid form", err))
		return false
	}
	return true
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
}

// safeNext only accepts local paths so the login form cannot be used as an open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	vars := map[string]interface{}{"limit": PageSize}
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		vars["cursor"] = cursor
	}

	var data struct {
		Posts []Post `json:"posts"`
	}
	if err := h.client.Do(r.Context(), postsQuery, vars, &data); err != nil {
		h.fail(w, r, err)
		return
	}

	page := pageData{Posts: data.Posts}
	if len(data.Posts) == PageSize {
		page.NextCursor = data.Posts[len(data.Posts)-1].Cursor
	}
	h.render(w, r, pageHome, page)
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageLogin, pageData{Next: r.URL.Query().Get("next")})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := map[string]string{"usernameOrEmail": r.PostForm.Get("usernameOrEmail")}
	next := r.URL.Query().Get("next")

	var data struct {
		Login userResponse `json:"login"`
	}
	vars := map[string]interface{}{
		"usernameOrEmail": form["usernameOrEmail"],
		"password":        r.PostForm.Get("password"),
	}
	if err := h.client.Do(r.Context(), loginMutation, vars, &data); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(data.Login.Errors) > 0 {
		h.render(w, r, pageLogin, pageData{Form: form, Errors: apperror.ToErrorMap(data.Login.Errors), Next: next})
		return
	}

	h.cache.Set(cacheKey(r), data.Login.User)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageRegister, pageData{})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := map[string]string{
		"username": r.PostForm.Get("username"),
		"email":    r.PostForm.Get("email"),
	}

	var data struct {
		Register userResponse `json:"register"`
	}
	vars := map[string]interface{}{"options": map[string]interface{}{
		"username": form["username"],
		"email":    form["email"],
		"password": r.PostForm.Get("password"),
	}}
	if err := h.client.Do(r.Context(), registerMutation, vars, &data); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(data.Register.Errors) > 0 {
		h.render(w, r, pageRegister, pageData{Form: form, Errors: apperror.ToErrorMap(data.Register.Errors)})
		return
	}

	h.cache.Set(cacheKey(r), data.Register.User)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	// The key is gone once the session is destroyed.
	key := cacheKey(r)

	var data struct {
		Logout bool `json:"logout"`
	}
	if err := h.client.Do(r.Context(), logoutMutation, nil, &data); err != nil {
		h.fail(w, r, err)
		return
	}
	h.cache.Clear(key)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) forgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageForgotPassword, pageData{})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	vars := map[string]interface{}{"email": r.PostForm.Get("email")}
	if err := h.client.Do(r.Context(), forgotPasswordMutation, vars, nil); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, pageForgotPassword, pageData{Sent: true})
}

func (h *Handler) changePasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageChangePassword, pageData{Token: chi.URLParam(r, "token")})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	token := chi.URLParam(r, "token")

	var data struct {
		ChangePassword userResponse `json:"changePassword"`
	}
	vars := map[string]interface{}{
		"token":       token,
		"newPassword": r.PostForm.Get("newPassword"),
	}
	if err := h.client.Do(r.Context(), changePasswordMutation, vars, &data); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(data.ChangePassword.Errors) > 0 {
		h.render(w, r, pageChangePassword, pageData{Token: token, Errors: apperror.ToErrorMap(data.ChangePassword.Errors)})
		return
	}

	h.cache.Set(cacheKey(r), data.ChangePassword.User)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) createPostPage(w http.ResponseWriter, r *http.Request) {
	me, err := h.me(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if me == nil {
		redirectToLogin(w, r)
		return
	}
	h.render(w, r, pageCreatePost, pageData{Me: me})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := map[string]string{
		"title": r.PostForm.Get("title"),
		"text":  r.PostForm.Get("text"),
	}

	vars := map[string]interface{}{"input": map[string]interface{}{
		"title": form["title"],
		"text":  form["text"],
	}}
	err := h.client.Do(r.Context(), createPostMutation, vars, nil)
	if err != nil {
		var gqlErr *Error
		if errors.As(err, &gqlErr) && !IsNotAuthenticated(err) && gqlErr.Public() {
			h.render(w, r, pageCreatePost, pageData{Form: form, Errors: map[string]string{"title": gqlErr.Messages[0]}})
			return
		}
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
