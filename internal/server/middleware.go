package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipnest/clipnest/internal/feed"
	"github.com/clipnest/clipnest/internal/models"
)

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// render adds the session fields every page layout needs
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	state := s.sessions.State()
	data["Status"] = state.Status.String()
	data["User"] = state.User
	data["SignedIn"] = state.User != nil
	data["Path"] = c.Request.URL.RequestURI()
	c.HTML(status, name, data)
}

// currentAuthor is the signed-in user as a post or comment author. Only
// reachable behind the guard, so a missing user is a server error.
func (s *Server) currentAuthor(c *gin.Context) (feed.Author, bool) {
	user, ok := s.sessions.CurrentUser()
	if !ok {
		s.logger.Error().Str("path", c.Request.URL.Path).Msg("No session user behind guard")
		s.render(c, http.StatusInternalServerError, "error.html", gin.H{"Message": "Your session ended, please sign in again"})
		return feed.Author{}, false
	}
	return authorFromUser(user), true
}

func authorFromUser(user models.User) feed.Author {
	return feed.Author{Name: user.Name, Avatar: user.Avatar}
}

func (s *Server) notFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "error.html", gin.H{"Message": "Page not found"})
}
