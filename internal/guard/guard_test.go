package guard

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipnest/clipnest/internal/session"
)

type fixedStatus struct {
	status session.Status
}

func (f *fixedStatus) Status() session.Status { return f.status }

func newGuardedEngine(sessions StatusReader, decisions *[]Decision) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.SetHTMLTemplate(template.Must(template.New(LoadingTemplate).Parse(`loading {{.Path}}`)))

	protected := engine.Group("/", Require(sessions, zerolog.Nop(), func(d Decision) {
		*decisions = append(*decisions, d)
	}))
	protected.GET("/profile", func(c *gin.Context) { c.String(http.StatusOK, "protected profile") })
	protected.POST("/post/:id/like", func(c *gin.Context) { c.String(http.StatusOK, "liked") })
	return engine
}

func TestDecide(t *testing.T) {
	tests := []struct {
		status session.Status
		want   Decision
	}{
		{status: session.StatusLoading, want: Decision{Action: ActionWait}},
		{status: session.StatusUnauthenticated, want: Decision{Action: ActionRedirect, Intent: Intent{From: "/profile"}}},
		{status: session.StatusAuthenticated, want: Decision{Action: ActionRender}},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.status, "/profile"))
		})
	}
}

func TestRequire_LoadingNeverRendersProtectedView(t *testing.T) {
	var decisions []Decision
	engine := newGuardedEngine(&fixedStatus{status: session.StatusLoading}, &decisions)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Empty(t, w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "protected profile")
	require.Len(t, decisions, 1)
	assert.Equal(t, ActionWait, decisions[0].Action)
}

func TestRequire_RedirectsSignedOutVisitor(t *testing.T) {
	var decisions []Decision
	engine := newGuardedEngine(&fixedStatus{status: session.StatusUnauthenticated}, &decisions)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?from=%2Fprofile", w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "protected profile")
}

func TestRequire_KeepsQueryInIntent(t *testing.T) {
	var decisions []Decision
	engine := newGuardedEngine(&fixedStatus{status: session.StatusUnauthenticated}, &decisions)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile?tab=saved", nil))

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/profile?tab=saved", location.Query().Get(IntentParam))
}

func TestRequire_FormPostUsesReferer(t *testing.T) {
	var decisions []Decision
	engine := newGuardedEngine(&fixedStatus{status: session.StatusUnauthenticated}, &decisions)

	req := httptest.NewRequest(http.MethodPost, "/post/3/like", strings.NewReader(""))
	req.Header.Set("Referer", "http://example.com/post/3")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?from=%2Fpost%2F3", w.Header().Get("Location"))
}

func TestRequire_ForeignRefererDropsIntent(t *testing.T) {
	var decisions []Decision
	engine := newGuardedEngine(&fixedStatus{status: session.StatusUnauthenticated}, &decisions)

	req := httptest.NewRequest(http.MethodPost, "/post/3/like", nil)
	req.Header.Set("Referer", "https://evil.test/post/3")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRequire_RendersForSignedInUser(t *testing.T) {
	var decisions []Decision
	engine := newGuardedEngine(&fixedStatus{status: session.StatusAuthenticated}, &decisions)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "protected profile", w.Body.String())
}

func TestIntent_Destination(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{from: "", want: DefaultDestination},
		{from: "/profile", want: "/profile"},
		{from: "/explore?search=cat", want: "/explore?search=cat"},
		{from: "https://evil.test/", want: DefaultDestination},
		{from: "//evil.test/", want: DefaultDestination},
		{from: "/\\evil.test", want: DefaultDestination},
		{from: "profile", want: DefaultDestination},
		{from: "/login", want: DefaultDestination},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, Intent{From: tt.from}.Destination())
		})
	}
}

func TestIntent_RoundTrip(t *testing.T) {
	intent := Intent{From: "/profile"}

	req := httptest.NewRequest(http.MethodGet, intent.LoginURL(), nil)
	assert.Equal(t, intent, IntentFromRequest(req))

	form := url.Values{IntentParam: {"/profile"}, "email": {"a@b.com"}}
	post := httptest.NewRequest(http.MethodPost, LoginPath, strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, intent, IntentFromRequest(post))

	assert.Equal(t, LoginPath, Intent{}.LoginURL())
}
