package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipnest/clipnest/internal/feed"
	"github.com/clipnest/clipnest/internal/models"
	"github.com/clipnest/clipnest/internal/session"
)

// SessionResponse represents the session state
type SessionResponse struct {
	Status string       `json:"status"`
	User   *models.User `json:"user"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar" binding:"omitempty,url"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func sessionResponse(state session.State) SessionResponse {
	return SessionResponse{Status: state.Status.String(), User: state.User}
}

// @Summary Get session
// @Description Current session status and user
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /api/session [get]
func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse(s.sessions.State()))
}

// @Summary Log in
// @Description Authenticates and persists a new session, replacing any current one
// @Tags session
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/session [post]
func (s *Server) createSession(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.loginWith(c.Request.Context(), session.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Avatar:   req.Avatar,
	})
	if err != nil {
		status, message := loginErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: s.sessions.Token(), User: user})
}

// @Summary Log out
// @Description Clears the session. Succeeds when already signed out.
// @Tags session
// @Success 204
// @Failure 500 {object} map[string]interface{}
// @Router /api/session [delete]
func (s *Server) deleteSession(c *gin.Context) {
	if err := s.logoutSession(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List posts
// @Description Feed filtered by category and search text
// @Tags posts
// @Produce json
// @Param category query string false "Category id"
// @Param search query string false "Search text"
// @Success 200 {array} feed.Post
// @Router /api/posts [get]
func (s *Server) listPosts(c *gin.Context) {
	posts := s.feed.Filter(c.DefaultQuery("category", feed.AllCategories), c.Query("search"))
	if posts == nil {
		posts = []feed.Post{}
	}
	c.JSON(http.StatusOK, posts)
}
