package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/clipnest/clipnest/internal/guard"
	"github.com/clipnest/clipnest/internal/metrics"
	"github.com/clipnest/clipnest/internal/models"
	"github.com/clipnest/clipnest/internal/session"
)

// Demo identity used by the "Continue with Google" button
const (
	googleDemoEmail = "demo@google.com"
	googleDemoName  = "Demo User"
)

// LoginForm represents the login page form
type LoginForm struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

// SignupForm represents the signup page form
type SignupForm struct {
	Name            string `form:"name" binding:"required"`
	Email           string `form:"email" binding:"required,email"`
	Password        string `form:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

func (s *Server) loginPage(c *gin.Context) {
	intent := guard.IntentFromRequest(c.Request)
	if s.sessions.IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, intent.Destination())
		return
	}
	s.render(c, http.StatusOK, "login.html", gin.H{"From": intent.From})
}

func (s *Server) login(c *gin.Context) {
	intent := guard.IntentFromRequest(c.Request)

	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "login.html", gin.H{
			"From":   intent.From,
			"Email":  form.Email,
			"Errors": fieldErrors(err),
		})
		return
	}

	creds := session.Credentials{Email: form.Email, Password: form.Password}
	if _, err := s.loginWith(c.Request.Context(), creds); err != nil {
		status, message := loginErrorResponse(err)
		s.render(c, status, "login.html", gin.H{
			"From":  intent.From,
			"Email": form.Email,
			"Error": message,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, intent.Destination())
}

func (s *Server) googleLogin(c *gin.Context) {
	intent := guard.IntentFromRequest(c.Request)

	creds := session.Credentials{Email: googleDemoEmail, Name: googleDemoName}
	if _, err := s.loginWith(c.Request.Context(), creds); err != nil {
		status, message := loginErrorResponse(err)
		s.render(c, status, "login.html", gin.H{"From": intent.From, "Error": message})
		return
	}

	c.Redirect(http.StatusSeeOther, intent.Destination())
}

func (s *Server) signupPage(c *gin.Context) {
	if s.sessions.IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, guard.DefaultDestination)
		return
	}
	s.render(c, http.StatusOK, "signup.html", nil)
}

func (s *Server) signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "signup.html", gin.H{
			"Name":   form.Name,
			"Email":  form.Email,
			"Errors": fieldErrors(err),
		})
		return
	}

	creds := session.Credentials{Email: form.Email, Name: form.Name, Password: form.Password}
	if _, err := s.loginWith(c.Request.Context(), creds); err != nil {
		status, message := loginErrorResponse(err)
		s.render(c, status, "signup.html", gin.H{
			"Name":  form.Name,
			"Email": form.Email,
			"Error": message,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, guard.DefaultDestination)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.logoutSession(c.Request.Context()); err != nil {
		s.render(c, http.StatusInternalServerError, "error.html", gin.H{"Message": "Failed to sign out"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// loginWith runs a login and records its outcome
func (s *Server) loginWith(ctx context.Context, creds session.Credentials) (models.User, error) {
	user, err := s.sessions.Login(ctx, creds)
	metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
	if err != nil {
		s.logger.Warn().Err(err).Str("email", creds.Email).Msg("Login failed")
	}
	return user, err
}

func (s *Server) logoutSession(ctx context.Context) error {
	wasSignedIn := s.sessions.IsAuthenticated()
	if err := s.sessions.Logout(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to log out")
		return err
	}
	if wasSignedIn {
		metrics.LogoutsTotal.Inc()
	}
	return nil
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, session.ErrLoginInProgress):
		return "busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failure"
	}
}

// loginErrorResponse maps a login error to a status code and a message that
// is safe to show inline
func loginErrorResponse(err error) (int, string) {
	var loginErr *session.LoginError
	switch {
	case errors.Is(err, session.ErrLoginInProgress):
		return http.StatusConflict, "A sign-in is already in progress"
	case errors.As(err, &loginErr):
		if errors.Is(err, session.ErrInvalidCredentials) {
			return http.StatusUnauthorized, capitalize(loginErr.Reason)
		}
		return http.StatusBadGateway, capitalize(loginErr.Reason)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Sign-in timed out, please try again"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "Sign-in was cancelled"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fieldErrors turns binding errors into one message per form field
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": "Invalid form submission"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := formFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required"
		case "email":
			out[field] = "Enter a valid email address"
		case "min":
			out[field] = "Must be at least " + fe.Param() + " characters"
		case "eqfield":
			out[field] = "Passwords do not match"
		case "url":
			out[field] = "Enter a valid URL"
		default:
			out[field] = "Invalid value"
		}
	}
	return out
}

func formFieldName(field string) string {
	switch field {
	case "ConfirmPassword":
		return "confirm_password"
	case "ImageURL":
		return "image_url"
	default:
		return strings.ToLower(field)
	}
}
