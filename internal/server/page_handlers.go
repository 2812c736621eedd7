package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipnest/clipnest/internal/feed"
)

func (s *Server) landingPage(c *gin.Context) {
	s.render(c, http.StatusOK, "landing.html", gin.H{
		"Posts": s.feed.Filter(feed.AllCategories, ""),
	})
}

func (s *Server) aboutPage(c *gin.Context) {
	s.render(c, http.StatusOK, "about.html", nil)
}

func (s *Server) homePage(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", gin.H{
		"Posts": s.feed.Filter(feed.AllCategories, ""),
	})
}

func (s *Server) explorePage(c *gin.Context) {
	category := c.DefaultQuery("category", feed.AllCategories)
	query := c.Query("search")

	s.render(c, http.StatusOK, "explore.html", gin.H{
		"Categories": s.feed.Categories(),
		"Category":   category,
		"Search":     query,
		"Posts":      s.feed.Filter(category, query),
	})
}

// profilePage shows the signed-in user's posts or saved posts (?tab=saved)
func (s *Server) profilePage(c *gin.Context) {
	author, ok := s.currentAuthor(c)
	if !ok {
		return
	}

	tab := c.DefaultQuery("tab", "posts")
	var posts []feed.Post
	if tab == "saved" {
		posts = s.feed.Saved()
	} else {
		tab = "posts"
		posts = s.feed.ByAuthor(author.Name)
	}

	s.render(c, http.StatusOK, "profile.html", gin.H{
		"Profile": s.feed.Profile(),
		"Tab":     tab,
		"Posts":   posts,
	})
}
