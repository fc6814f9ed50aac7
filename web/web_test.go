package web

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/auth"
	"github.com/user/redditclone-go/graph"
	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/mail"
	"github.com/user/redditclone-go/posts"
	"github.com/user/redditclone-go/posts/poststest"
	"github.com/user/redditclone-go/session/sessiontest"
	"github.com/user/redditclone-go/users/userstest"
)

type queueRecorder struct {
	msgs []mail.Message
}

func (q *queueRecorder) Enqueue(_ context.Context, msg mail.Message) bool {
	q.msgs = append(q.msgs, msg)
	return true
}

type site struct {
	handler *Handler
	srv     *httptest.Server
	browser *http.Client
	cache   *MeCache
	posts   *poststest.Repo
	queue   *queueRecorder
	tokens  *miniredis.Miniredis
}

func newSite(t *testing.T) *site {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := &queueRecorder{}
	authService := auth.NewService(userstest.NewRepo(), auth.NewRedisTokenStore(client), queue, auth.Config{
		FrontendURL: "http://localhost:4000",
		HashCost:    bcrypt.MinCost,
	}, logging.Nop())
	postRepo := poststest.NewRepo()

	schema, err := graph.NewSchema(graph.NewResolver(authService, posts.NewService(postRepo, logging.Nop()), logging.Nop()))
	require.NoError(t, err)

	cache, err := NewMeCache(16)
	require.NoError(t, err)
	h, err := NewHandler(NewClient(&schema), cache, logging.Nop())
	require.NoError(t, err)

	manager, _ := sessiontest.NewManager(t)
	router := chi.NewRouter()
	router.Use(manager.Middleware, graph.ContextMiddleware(logging.Nop()))
	router.Handle("/graphql", graph.NewHandler(&schema, false))
	h.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	browser := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &site{handler: h, srv: srv, browser: browser, cache: cache, posts: postRepo, queue: queue, tokens: mr}
}

func (s *site) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	res, err := s.browser.Get(s.srv.URL + path)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (s *site) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	res, err := s.browser.PostForm(s.srv.URL+path, form)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func (s *site) registerAlice(t *testing.T) {
	t.Helper()
	res, _ := s.post(t, "/register", url.Values{"username": {"alice"}, "email": {"alice@x.com"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
}

func TestHome_Anonymous(t *testing.T) {
	s := newSite(t)
	res, body := s.get(t, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `href="/login"`)
	assert.Contains(t, body, "No posts yet.")
}

func TestRegister_FieldErrorsShownOnForm(t *testing.T) {
	s := newSite(t)
	res, body := s.post(t, "/register", url.Values{"username": {"al"}, "email": {"al@x.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "username cannot be empty or less than 2 characters long")
	assert.Contains(t, body, `value="al@x.com"`)
}

func TestRegister_PopulatesMeCache(t *testing.T) {
	s := newSite(t)
	s.registerAlice(t)

	assert.Equal(t, 1, s.cache.entries.Len())
	_, body := s.get(t, "/")
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, `action="/logout"`)
}

func TestLogout_ClearsMeCache(t *testing.T) {
	s := newSite(t)
	s.registerAlice(t)

	res, _ := s.post(t, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Zero(t, s.cache.entries.Len())

	_, body := s.get(t, "/")
	assert.Contains(t, body, `href="/login"`)
}

func TestCreatePost_RedirectsToLoginAndBack(t *testing.T) {
	s := newSite(t)

	res, _ := s.get(t, "/create-post")
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login?next=%2Fcreate-post", res.Header.Get("Location"))

	res, _ = s.post(t, "/create-post", url.Values{"title": {"hi"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.True(t, strings.HasPrefix(res.Header.Get("Location"), "/login?next="))

	s.registerAlice(t)
	res, _ = s.post(t, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	res, _ = s.post(t, "/login?next=%2Fcreate-post", url.Values{"usernameOrEmail": {"alice"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/create-post", res.Header.Get("Location"))

	res, _ = s.post(t, "/create-post", url.Values{"title": {"hello world"}, "text": {"body"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	_, body := s.get(t, "/")
	assert.Contains(t, body, "hello world")
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newSite(t)
	s.registerAlice(t)
	s.post(t, "/logout", nil)

	res, body := s.post(t, "/login", url.Values{"usernameOrEmail": {"alice"}, "password": {"nope"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "incorrect password")
}

func TestLogin_RejectsOffsiteNext(t *testing.T) {
	s := newSite(t)
	s.registerAlice(t)
	s.post(t, "/logout", nil)

	res, _ := s.post(t, "/login?next=%2F%2Fevil.example", url.Values{"usernameOrEmail": {"alice"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))
}

var loadMoreLink = regexp.MustCompile(`href="(/\?cursor=[^"]+)">load more`)

func TestHome_LoadMore(t *testing.T) {
	s := newSite(t)
	base := time.UnixMilli(1_700_000_000_000)
	for i := 0; i < 12; i++ {
		_, err := s.posts.Create(context.Background(), &posts.Post{
			Title:     "post-" + string(rune('a'+i)),
			CreatorID: 1,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	_, body := s.get(t, "/")
	assert.Contains(t, body, "post-l")
	assert.NotContains(t, body, "post-b")
	m := loadMoreLink.FindStringSubmatch(body)
	require.NotNil(t, m)

	_, body = s.get(t, html.UnescapeString(m[1]))
	assert.Contains(t, body, "post-a")
	assert.Contains(t, body, "post-b")
	assert.NotContains(t, body, "post-c")
	assert.NotContains(t, body, "load more")
}

func TestHome_LoadMoreShowsEveryPostOnce(t *testing.T) {
	s := newSite(t)
	base := time.UnixMicro(1_700_000_000_000_000)
	const total = 30
	for i := 0; i < total; i++ {
		_, err := s.posts.Create(context.Background(), &posts.Post{
			Title:     fmt.Sprintf("p%02d", i),
			CreatorID: 1,
			CreatedAt: base.Add(time.Duration(i*400) * time.Microsecond),
		})
		require.NoError(t, err)
	}

	title := regexp.MustCompile(`<h3>(p\d\d)</h3>`)
	seen := map[string]int{}
	path := "/"
	for pages := 0; pages < total; pages++ {
		res, body := s.get(t, path)
		require.Equal(t, http.StatusOK, res.StatusCode)
		for _, m := range title.FindAllStringSubmatch(body, -1) {
			seen[m[1]]++
		}
		m := loadMoreLink.FindStringSubmatch(body)
		if m == nil {
			break
		}
		path = html.UnescapeString(m[1])
	}

	assert.Len(t, seen, total)
	for name, n := range seen {
		assert.Equal(t, 1, n, name)
	}
}

func TestForgotAndChangePassword(t *testing.T) {
	s := newSite(t)
	s.registerAlice(t)
	s.post(t, "/logout", nil)

	res, body := s.post(t, "/forgot-password", url.Values{"email": {"alice@x.com"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "we sent you an email")
	require.Len(t, s.queue.msgs, 1)

	keys := s.tokens.Keys()
	require.Len(t, keys, 1)
	token := strings.TrimPrefix(keys[0], "forget-password:")

	res, body = s.post(t, "/change-password/"+token, url.Values{"newPassword": {"ab"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "password cannot be empty or less than 3 characters long")

	res, _ = s.post(t, "/change-password/"+token, url.Values{"newPassword": {"brandnew"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	_, body = s.get(t, "/")
	assert.Contains(t, body, "alice")

	res, body = s.post(t, "/change-password/"+token, url.Values{"newPassword": {"another"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "token expired")
}

func TestLoginThroughAPI_NavbarFollowsNewUser(t *testing.T) {
	s := newSite(t)
	s.registerAlice(t)
	_, body := s.get(t, "/")
	require.Contains(t, body, "<span>alice</span>")

	payload := `{"query":"mutation { register(options: {username: \"bob\", email: \"bob@x.com\", password: \"secret1\"}) { user { id } } }"}`
	res, err := s.browser.Post(s.srv.URL+"/graphql", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)

	_, body = s.get(t, "/")
	assert.Contains(t, body, "<span>bob</span>")
	assert.NotContains(t, body, "<span>alice</span>")
}

func TestHome_InvalidCursorIsBadRequest(t *testing.T) {
	s := newSite(t)
	res, body := s.get(t, "/?cursor=soon")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "invalid cursor")
}

func TestMalformedFormIsBadRequest(t *testing.T) {
	s := newSite(t)
	res, err := s.browser.Post(s.srv.URL+"/login", "application/x-www-form-urlencoded", strings.NewReader("password=%zz"))
	require.NoError(t, err)
	body := readBody(t, res)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "invalid form")
}

func TestFail_StatusFollowsError(t *testing.T) {
	s := newSite(t)
	tests := []struct {
		name string
		err  error
		want int
		body string
	}{
		{"forbidden", apperror.NewUnauthorizedError("not authorized", nil), http.StatusForbidden, "not authorized"},
		{"not found", apperror.NewNotFoundError("post not found", nil), http.StatusNotFound, "post not found"},
		{"graphql client error", &Error{Messages: []string{"invalid cursor"}, Status: http.StatusBadRequest}, http.StatusBadRequest, "invalid cursor"},
		{"masked", &Error{Messages: []string{"internal error"}, Status: http.StatusInternalServerError}, http.StatusInternalServerError, "internal error"},
		{"database", apperror.NewDatabaseError("failed to list posts", assert.AnError), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.handler.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
			assert.NotContains(t, rec.Body.String(), "assert.AnError")
		})
	}
}

func TestMeCache(t *testing.T) {
	c, err := NewMeCache(2)
	require.NoError(t, err)

	_, ok := c.Get("s1")
	assert.False(t, ok)

	c.Set("s1", &User{ID: 1, Username: "alice"})
	u, ok := c.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	c.Set("s2", nil)
	u, ok = c.Get("s2")
	assert.True(t, ok)
	assert.Nil(t, u)

	c.Set("", &User{ID: 9})
	_, ok = c.Get("")
	assert.False(t, ok)

	c.Clear("s1")
	_, ok = c.Get("s1")
	assert.False(t, ok)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/create-post", safeNext("/create-post"))
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("https://evil.example"))
	assert.Equal(t, "/", safeNext("//evil.example"))
}

func TestIsNotAuthenticated(t *testing.T) {
	assert.True(t, IsNotAuthenticated(&Error{Messages: []string{"not authenticated"}}))
	assert.False(t, IsNotAuthenticated(&Error{Messages: []string{"not authorized"}}))
	assert.False(t, IsNotAuthenticated(assert.AnError))
}
