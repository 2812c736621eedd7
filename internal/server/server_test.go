package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipnest/clipnest/internal/auth"
	"github.com/clipnest/clipnest/internal/config"
	"github.com/clipnest/clipnest/internal/feed"
	"github.com/clipnest/clipnest/internal/session"
	"github.com/clipnest/clipnest/internal/sessionstore"
)

type testEnv struct {
	server   *Server
	sessions *session.Service
	store    *sessionstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer, err := auth.NewTokenIssuer("test-secret")
	require.NoError(t, err)

	store := sessionstore.New(sessionstore.NewMemoryBackend(), zerolog.Nop())
	sessions := session.NewService(store, auth.NewMockAuthenticator(issuer, 0), zerolog.Nop())
	t.Cleanup(sessions.Close)

	content, err := feed.Load()
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			ListenAddr:  ":0",
			CORSOrigins: []string{"http://localhost:5173"},
		},
	}
	srv, err := New(cfg, zerolog.Nop(), sessions, content, "test")
	require.NoError(t, err)

	return &testEnv{server: srv, sessions: sessions, store: store}
}

// ready finishes loading the (empty) persisted session
func (e *testEnv) ready(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, e.sessions.Initialize(context.Background()))
	return e
}

func (e *testEnv) signIn(t *testing.T, email string) {
	t.Helper()
	_, err := e.sessions.Login(context.Background(), session.Credentials{Email: email})
	require.NoError(t, err)
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t).ready(t)

	w := env.get("/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "unauthenticated", body["session"])
}

func TestProtectedPage_WaitsWhileLoading(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/profile")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "Loading your session")
}

func TestLoginFlow_ReturnsToRequestedPage(t *testing.T) {
	env := newTestEnv(t).ready(t)

	w := env.get("/profile")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?from=%2Fprofile", w.Header().Get("Location"))

	w = env.get("/login?from=%2Fprofile")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="from" value="/profile"`)

	w = env.postForm("/login", url.Values{
		"email":    {"a@b.com"},
		"password": {"secret"},
		"from":     {"/profile"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile", w.Header().Get("Location"))

	persisted, ok := env.store.Read()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", persisted.User.Email)
	assert.Equal(t, "a@b.com", persisted.User.Name)
	assert.NotEmpty(t, persisted.Token)

	w = env.get("/profile")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@b.com")
}

func TestLogin_WithoutIntentGoesHome(t *testing.T) {
	env := newTestEnv(t).ready(t)

	w := env.postForm("/login", url.Values{"email": {"a@b.com"}, "password": {"secret"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
}

func TestLogin_RejectsForeignIntent(t *testing.T) {
	env := newTestEnv(t).ready(t)

	w := env.postForm("/login", url.Values{
		"email":    {"a@b.com"},
		"password": {"secret"},
		"from":     {"https://evil.test/"},
	})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
}

func TestLogin_InvalidFormShowsFieldErrors(t *testing.T) {
	env := newTestEnv(t).ready(t)

	w := env.postForm("/login", url.Values{"email": {"not-an-email"}, "password": {"secret"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Enter a valid email address")
	assert.False(t, env.sessions.IsAuthenticated())
	_, ok := env.store.Read()
	assert.False(t, ok)
}

func TestLoginPage_RedirectsWhenSignedIn(t *testing.T) {
	env := newTestEnv(t).ready(t)
	env.signIn(t, "a@b.com")

	w := env.get("/login?from=%2Fexplore")

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/explore", w.Header().Get("Location"))
}

func TestGoogleLogin(t *testing.T) {
	env := newTestEnv(t).ready(t)

	w := env.postForm("/login/google", url.Values{"from": {"/create"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/create", w.Header().Get("Location"))

	user, ok := env.sessions.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, googleDemoEmail, user.Email)
	assert.Equal(t, googleDemoName, user.Name)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t).ready(t)

	t.Run("mismatched passwords", func(t *testing.T) {
		w := env.postForm("/signup", url.Values{
			"name":             {"Ada"},
			"email":            {"ada@example.com"},
			"password":         {"secret1"},
			"confirm_password": {"secret2"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Passwords do not match")
		assert.False(t, env.sessions.IsAuthenticated())
	})

	t.Run("short password", func(t *testing.T) {
		w := env.postForm("/signup", url.Values{
			"name":             {"Ada"},
			"email":            {"ada@example.com"},
			"password":         {"abc"},
			"confirm_password": {"abc"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must be at least 6 characters")
	})

	t.Run("valid", func(t *testing.T) {
		w := env.postForm("/signup", url.Values{
			"name":             {"Ada"},
			"email":            {"ada@example.com"},
			"password":         {"secret1"},
			"confirm_password": {"secret1"},
		})
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/home", w.Header().Get("Location"))

		user, ok := env.sessions.CurrentUser()
		require.True(t, ok)
		assert.Equal(t, "Ada", user.Name)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t).ready(t)
	env.signIn(t, "a@b.com")

	w := env.postForm("/logout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	assert.False(t, env.sessions.IsAuthenticated())
	_, ok := env.store.Read()
	assert.False(t, ok)

	w = env.get("/profile")
	assert.Equal(t, http.StatusSeeOther, w.Code)

	// Logging out again is harmless
	w = env.postForm("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t).ready(t)

	for _, path := range []string{"/", "/about", "/home", "/explore", "/explore?category=food&search=pasta", "/post/1", "/login", "/signup"} {
		t.Run(path, func(t *testing.T) {
			w := env.get(path)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestPostPage_NotFound(t *testing.T) {
	env := newTestEnv(t).ready(t)

	assert.Equal(t, http.StatusNotFound, env.get("/post/999").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/post/abc").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/nowhere").Code)
}

func TestPostActions_RequireSignIn(t *testing.T) {
	env := newTestEnv(t).ready(t)

	req := httptest.NewRequest(http.MethodPost, "/post/1/like", nil)
	req.Header.Set("Referer", "http://example.com/post/1")
	w := env.do(req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?from=%2Fpost%2F1", w.Header().Get("Location"))

	post, err := env.server.feed.Get(1)
	require.NoError(t, err)
	assert.False(t, post.Liked)
}

func TestPostActions_SignedIn(t *testing.T) {
	env := newTestEnv(t).ready(t)
	env.signIn(t, "ada@example.com")

	w := env.postForm("/post/1/like", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/post/1", w.Header().Get("Location"))

	w = env.postForm("/post/1/save", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.postForm("/post/1/comments", url.Values{"text": {"Beautiful"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.postForm("/post/1/comments", url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.postForm("/post/1/comments/1/like", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	post, err := env.server.feed.Get(1)
	require.NoError(t, err)
	assert.True(t, post.Liked)
	assert.True(t, post.Saved)
	require.Len(t, post.Comments, 4)
	assert.Equal(t, "Beautiful", post.Comments[0].Text)
	assert.Equal(t, "ada@example.com", post.Comments[0].Author.Name)

	assert.Equal(t, http.StatusNotFound, env.postForm("/post/999/like", nil).Code)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t).ready(t)
	env.signIn(t, "ada@example.com")

	w := env.get("/create")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.postForm("/create", url.Values{"title": {"Sunrise"}, "image_url": {"not a url"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must be a valid URL")

	w = env.postForm("/create", url.Values{
		"title":     {"Sunrise"},
		"image_url": {"https://example.com/sunrise.jpg"},
		"category":  {"nature"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/post/7", w.Header().Get("Location"))

	w = env.get("/profile")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sunrise")
}

func TestAPI_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t).ready(t)

	var state SessionResponse
	w := env.get("/api/session")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "unauthenticated", state.Status)
	assert.Nil(t, state.User)

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"email":"a@b.com","name":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Ada", login.User.Name)

	w = env.get("/api/session")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "authenticated", state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "a@b.com", state.User.Email)

	w = env.do(httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, env.sessions.IsAuthenticated())

	w = env.do(httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPI_LoginRejectsBadEmail(t *testing.T) {
	env := newTestEnv(t).ready(t)

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.sessions.IsAuthenticated())
}

func TestAPI_ListPosts(t *testing.T) {
	env := newTestEnv(t).ready(t)

	var posts []feed.Post
	w := env.get("/api/posts?category=food")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, 2, posts[0].ID)

	w = env.get("/api/posts?category=technology")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSessionEvents(t *testing.T) {
	env := newTestEnv(t).ready(t)

	ts := httptest.NewServer(env.server.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/session/events", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	var state SessionResponse
	require.NoError(t, wsjson.Read(ctx, conn, &state))
	assert.Equal(t, "unauthenticated", state.Status)

	env.signIn(t, "a@b.com")

	require.NoError(t, wsjson.Read(ctx, conn, &state))
	assert.Equal(t, "authenticated", state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "a@b.com", state.User.Email)

	require.NoError(t, env.sessions.Logout(ctx))

	require.NoError(t, wsjson.Read(ctx, conn, &state))
	assert.Equal(t, "unauthenticated", state.Status)
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:5173", "not a url", "https://app.example.com"})
	assert.Equal(t, []string{"localhost:5173", "app.example.com"}, got)
}
