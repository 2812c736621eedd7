package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clipnest/clipnest/internal/feed"
)

func (s *Server) postPage(c *gin.Context) {
	id, ok := s.postID(c)
	if !ok {
		return
	}

	post, err := s.feed.Get(id)
	if err != nil {
		s.feedError(c, err)
		return
	}

	s.render(c, http.StatusOK, "post.html", gin.H{"Post": post})
}

func (s *Server) createPostPage(c *gin.Context) {
	s.render(c, http.StatusOK, "create.html", gin.H{
		"Categories": s.feed.Categories(),
		"Input":      feed.NewPost{},
	})
}

func (s *Server) createPost(c *gin.Context) {
	author, ok := s.currentAuthor(c)
	if !ok {
		return
	}

	var input feed.NewPost
	if err := c.ShouldBind(&input); err != nil {
		s.render(c, http.StatusBadRequest, "create.html", gin.H{
			"Categories": s.feed.Categories(),
			"Input":      input,
			"Errors":     fieldErrors(err),
		})
		return
	}

	post, err := s.feed.Create(input, author)
	if err != nil {
		var invalid *feed.InvalidPostError
		if errors.As(err, &invalid) {
			s.render(c, http.StatusBadRequest, "create.html", gin.H{
				"Categories": s.feed.Categories(),
				"Input":      input,
				"Errors":     invalid.Fields,
			})
			return
		}
		s.feedError(c, err)
		return
	}

	s.logger.Info().Int("post_id", post.ID).Str("author", author.Name).Msg("Post created")
	c.Redirect(http.StatusSeeOther, postURL(post.ID))
}

func (s *Server) likePost(c *gin.Context) {
	s.togglePost(c, s.feed.ToggleLike)
}

func (s *Server) savePost(c *gin.Context) {
	s.togglePost(c, s.feed.ToggleSave)
}

func (s *Server) togglePost(c *gin.Context, toggle func(int) (feed.Post, error)) {
	id, ok := s.postID(c)
	if !ok {
		return
	}
	if _, err := toggle(id); err != nil {
		s.feedError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, postURL(id))
}

func (s *Server) addComment(c *gin.Context) {
	author, ok := s.currentAuthor(c)
	if !ok {
		return
	}
	id, ok := s.postID(c)
	if !ok {
		return
	}

	if _, err := s.feed.AddComment(id, c.PostForm("text"), author); err != nil {
		if errors.Is(err, feed.ErrEmptyComment) {
			post, getErr := s.feed.Get(id)
			if getErr != nil {
				s.feedError(c, getErr)
				return
			}
			s.render(c, http.StatusBadRequest, "post.html", gin.H{
				"Post":         post,
				"CommentError": "Write something before posting",
			})
			return
		}
		s.feedError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, postURL(id)+"#comments")
}

func (s *Server) likeComment(c *gin.Context) {
	id, ok := s.postID(c)
	if !ok {
		return
	}
	commentID, err := strconv.Atoi(c.Param("cid"))
	if err != nil {
		s.notFound(c)
		return
	}

	if _, err := s.feed.ToggleCommentLike(id, commentID); err != nil {
		s.feedError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, postURL(id)+"#comments")
}

func (s *Server) postID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		s.notFound(c)
		return 0, false
	}
	return id, true
}

func (s *Server) feedError(c *gin.Context, err error) {
	if errors.Is(err, feed.ErrPostNotFound) || errors.Is(err, feed.ErrCommentNotFound) {
		s.notFound(c)
		return
	}
	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Feed operation failed")
	s.render(c, http.StatusInternalServerError, "error.html", gin.H{"Message": "Something went wrong"})
}

func postURL(id int) string {
	return fmt.Sprintf("/post/%d", id)
}
