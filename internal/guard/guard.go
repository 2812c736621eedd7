// Package guard gates protected views on the session status.
//
// While the session is still loading nothing protected is rendered and nobody
// is redirected. Signed-out visitors are sent to the login page with an Intent
// recording where they were going; the login flow resolves it afterwards.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/clipnest/clipnest/internal/session"
)

const (
	LoginPath          = "/login"
	DefaultDestination = "/home"
	IntentParam        = "from"

	// LoadingTemplate is rendered while the session is still loading
	LoadingTemplate = "loading.html"
)

// Action is what the guard does with a request
type Action int

const (
	ActionWait Action = iota
	ActionRedirect
	ActionRender
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRedirect:
		return "redirect"
	case ActionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is the outcome for one request. Intent is set for ActionRedirect.
type Decision struct {
	Action Action
	Intent Intent
}

// Intent remembers the destination a signed-out visitor asked for
type Intent struct {
	From string
}

// Decide maps the session status and requested path to a decision
func Decide(status session.Status, requestedPath string) Decision {
	switch status {
	case session.StatusAuthenticated:
		return Decision{Action: ActionRender}
	case session.StatusUnauthenticated:
		return Decision{Action: ActionRedirect, Intent: Intent{From: requestedPath}}
	default:
		return Decision{Action: ActionWait}
	}
}

// LoginURL is the login page carrying the intent
func (i Intent) LoginURL() string {
	if i.From == "" {
		return LoginPath
	}
	v := url.Values{}
	v.Set(IntentParam, i.From)
	return LoginPath + "?" + v.Encode()
}

// Destination is where to go after a successful login
func (i Intent) Destination() string {
	if isLocalPath(i.From) {
		return i.From
	}
	return DefaultDestination
}

// IntentFromRequest reads the intent carried by a login page request or form
func IntentFromRequest(r *http.Request) Intent {
	return Intent{From: r.FormValue(IntentParam)}
}

// StatusReader is the part of the session the guard depends on
type StatusReader interface {
	Status() session.Status
}

// Require is gin middleware protecting the routes it is attached to.
// observe, when non-nil, is told about every decision.
func Require(sessions StatusReader, log zerolog.Logger, observe func(Decision)) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := Decide(sessions.Status(), requestedPath(c.Request))
		if observe != nil {
			observe(decision)
		}

		switch decision.Action {
		case ActionRender:
			c.Next()
		case ActionRedirect:
			log.Debug().
				Str("path", c.Request.URL.Path).
				Str("from", decision.Intent.From).
				Msg("Redirecting signed-out visitor to login")
			c.Redirect(http.StatusSeeOther, decision.Intent.LoginURL())
			c.Abort()
		default:
			c.Header("Retry-After", "1")
			c.HTML(http.StatusServiceUnavailable, LoadingTemplate, gin.H{"Path": c.Request.URL.Path})
			c.Abort()
		}
	}
}

// requestedPath is the page to come back to. Form posts come back to the page
// that submitted them rather than the action URL.
func requestedPath(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}

	referer, err := url.Parse(r.Referer())
	if err != nil || referer.Path == "" {
		return ""
	}
	if referer.Host != "" && referer.Host != r.Host {
		return ""
	}
	if referer.RawQuery != "" {
		return referer.Path + "?" + referer.RawQuery
	}
	return referer.Path
}

// isLocalPath accepts absolute paths on this site, excluding the login page itself
func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return u.Path != LoginPath
}
