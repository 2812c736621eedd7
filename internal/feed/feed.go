// Package feed serves the mock pin board content.
//
// Content is seeded from an embedded YAML file and lives in memory for the
// lifetime of the process. Interaction state (likes, saves, comments) is
// shared by every page of the local installation.
package feed

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AllCategories matches every post
const AllCategories = "all"

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyComment    = errors.New("comment text is empty")
)

//go:embed seed.yaml
var seedYAML []byte

type Author struct {
	Name     string `yaml:"name" json:"name"`
	Username string `yaml:"username" json:"username,omitempty"`
	Avatar   string `yaml:"avatar" json:"avatar"`
}

type Comment struct {
	ID        int       `yaml:"id" json:"id"`
	Text      string    `yaml:"text" json:"text"`
	Author    Author    `yaml:"author" json:"author"`
	Likes     int       `yaml:"likes" json:"likes"`
	Liked     bool      `yaml:"liked" json:"liked"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

type Post struct {
	ID          int       `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	ImageURL    string    `yaml:"image_url" json:"image_url"`
	Category    string    `yaml:"category" json:"category"`
	Tags        []string  `yaml:"tags" json:"tags,omitempty"`
	Location    string    `yaml:"location" json:"location,omitempty"`
	Author      Author    `yaml:"author" json:"author"`
	Likes       int       `yaml:"likes" json:"likes"`
	Liked       bool      `yaml:"liked" json:"liked"`
	Saved       bool      `yaml:"saved" json:"saved"`
	Comments    []Comment `yaml:"comments" json:"comments"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
}

type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Icon string `yaml:"icon" json:"icon"`
}

// Profile is the public profile shown on the profile page
type Profile struct {
	Name      string `yaml:"name"`
	Username  string `yaml:"username"`
	Avatar    string `yaml:"avatar"`
	Bio       string `yaml:"bio"`
	Followers int    `yaml:"followers"`
	Following int    `yaml:"following"`
	Location  string `yaml:"location"`
	Website   string `yaml:"website"`
	Joined    string `yaml:"joined"`
}

// NewPost is the create-post form
type NewPost struct {
	Title       string `form:"title" validate:"required,max=120"`
	Description string `form:"description" validate:"max=2000"`
	ImageURL    string `form:"image_url" validate:"required,url"`
	Category    string `form:"category"`
	Tags        string `form:"tags"`
	Location    string `form:"location"`
}

// InvalidPostError lists the form fields that failed validation
type InvalidPostError struct {
	Fields map[string]string
}

func (e *InvalidPostError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return fmt.Sprintf("invalid post: %s", strings.Join(keys, ", "))
}

type seed struct {
	Categories []Category `yaml:"categories"`
	Profile    Profile    `yaml:"profile"`
	Posts      []Post     `yaml:"posts"`
}

// Feed is the in-memory content store
type Feed struct {
	validator *validator.Validate
	now       func() time.Time

	mu            sync.RWMutex
	posts         []*Post // newest first
	categories    []Category
	profile       Profile
	nextPostID    int
	nextCommentID int
}

// Load builds a feed from the embedded seed
func Load() (*Feed, error) {
	return Parse(seedYAML)
}

// Parse builds a feed from YAML seed data
func Parse(data []byte) (*Feed, error) {
	var s seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse feed seed: %w", err)
	}

	f := &Feed{
		validator:  validator.New(),
		now:        time.Now,
		categories: s.Categories,
		profile:    s.Profile,
	}
	for i := range s.Posts {
		post := s.Posts[i]
		f.posts = append(f.posts, &post)
		f.nextPostID = max(f.nextPostID, post.ID)
		for _, c := range post.Comments {
			f.nextCommentID = max(f.nextCommentID, c.ID)
		}
	}

	return f, nil
}

// Categories lists the browsable categories, "all" first
func (f *Feed) Categories() []Category {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.categories)
}

// HasCategory reports whether id is a known category other than "all"
func (f *Feed) HasCategory(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.categories {
		if c.ID == id && id != AllCategories {
			return true
		}
	}
	return false
}

// Profile returns the mock public profile
func (f *Feed) Profile() Profile {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.profile
}

// Filter returns posts in category (or all when empty/"all") whose title,
// description or author name contains query, case-insensitively
func (f *Feed) Filter(category, query string) []Post {
	query = strings.ToLower(strings.TrimSpace(query))

	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []Post
	for _, p := range f.posts {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) &&
			!strings.Contains(strings.ToLower(p.Author.Name), query) {
			continue
		}
		out = append(out, clonePost(p))
	}
	return out
}

// Get returns a single post
func (f *Feed) Get(id int) (Post, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, err := f.findLocked(id)
	if err != nil {
		return Post{}, err
	}
	return clonePost(p), nil
}

// Create validates input and adds a post at the top of the feed
func (f *Feed) Create(input NewPost, author Author) (Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.ImageURL = strings.TrimSpace(input.ImageURL)

	if err := f.validator.Struct(input); err != nil {
		return Post{}, invalidPost(err)
	}
	if input.Category != "" && !f.HasCategory(input.Category) {
		return Post{}, &InvalidPostError{Fields: map[string]string{"category": "unknown category"}}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextPostID++
	post := &Post{
		ID:          f.nextPostID,
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Category:    input.Category,
		Tags:        splitTags(input.Tags),
		Location:    strings.TrimSpace(input.Location),
		Author:      author,
		CreatedAt:   f.now(),
	}
	f.posts = append([]*Post{post}, f.posts...)

	return clonePost(post), nil
}

// ToggleLike flips the like on a post and adjusts its count
func (f *Feed) ToggleLike(id int) (Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.findLocked(id)
	if err != nil {
		return Post{}, err
	}
	if p.Liked {
		p.Likes--
	} else {
		p.Likes++
	}
	p.Liked = !p.Liked
	return clonePost(p), nil
}

// ToggleSave flips the saved flag on a post
func (f *Feed) ToggleSave(id int) (Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.findLocked(id)
	if err != nil {
		return Post{}, err
	}
	p.Saved = !p.Saved
	return clonePost(p), nil
}

// AddComment puts a new comment at the top of the post's comments
func (f *Feed) AddComment(postID int, text string, author Author) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.findLocked(postID)
	if err != nil {
		return Comment{}, err
	}

	f.nextCommentID++
	comment := Comment{
		ID:        f.nextCommentID,
		Text:      text,
		Author:    author,
		CreatedAt: f.now(),
	}
	p.Comments = append([]Comment{comment}, p.Comments...)
	return comment, nil
}

// ToggleCommentLike flips the like on one comment
func (f *Feed) ToggleCommentLike(postID, commentID int) (Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.findLocked(postID)
	if err != nil {
		return Comment{}, err
	}
	for i := range p.Comments {
		c := &p.Comments[i]
		if c.ID != commentID {
			continue
		}
		if c.Liked {
			c.Likes--
		} else {
			c.Likes++
		}
		c.Liked = !c.Liked
		return *c, nil
	}
	return Comment{}, ErrCommentNotFound
}

// ByAuthor returns the posts published under name
func (f *Feed) ByAuthor(name string) []Post {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []Post
	for _, p := range f.posts {
		if p.Author.Name == name {
			out = append(out, clonePost(p))
		}
	}
	return out
}

// Saved returns the saved posts
func (f *Feed) Saved() []Post {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []Post
	for _, p := range f.posts {
		if p.Saved {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (f *Feed) findLocked(id int) (*Post, error) {
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
}

func clonePost(p *Post) Post {
	out := *p
	out.Tags = slices.Clone(p.Tags)
	out.Comments = slices.Clone(p.Comments)
	return out
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func invalidPost(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if fe.Field() == "ImageURL" {
			name = "image_url"
		}
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "url":
			fields[name] = "must be a valid URL"
		case "max":
			fields[name] = "is too long"
		default:
			fields[name] = "is invalid"
		}
	}
	return &InvalidPostError{Fields: fields}
}
