package blogservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/blogpress/internal/common"
	"github.com/sushihentaime/blogpress/internal/crud"
)

func NewBlogService(db *sql.DB, c *common.Cache) *BlogService {
	m := newBlogModel(db)
	col := crud.WithCache(m, c)

	return &BlogService{
		e:   crud.NewEngine(col, blogFields, hiddenFields, crud.DefaultPageSize),
		m:   m,
		col: col,
	}
}

// ListBlogs returns the caller's own blogs, a page at a time. An empty
// page surfaces as common.ErrRecordNotFound.
func (s *BlogService) ListBlogs(ctx context.Context, userID, page int) ([]crud.Record, error) {
	return s.e.List(ctx, userID, page)
}

// GhostBlogs returns the page of blogs the caller does not own; an empty
// page is an empty success.
func (s *BlogService) GhostBlogs(ctx context.Context, userID, page int) ([]crud.Record, error) {
	return s.e.ListOthers(ctx, userID, page)
}

func (s *BlogService) GetBlogByID(ctx context.Context, userID, id int) (crud.Record, error) {
	return s.e.Get(ctx, userID, id)
}

// CreateBlog persists a new blog owned by the caller. imageurl is the
// location of the uploaded cover image, empty when none was provided.
func (s *BlogService) CreateBlog(ctx context.Context, userID int, input crud.Record, imageurl string) (crud.Record, error) {
	var extra crud.Record
	if imageurl != "" {
		extra = crud.Record{"imageurl": imageurl}
	}

	return s.e.Create(ctx, userID, input, extra)
}

func (s *BlogService) UpdateBlog(ctx context.Context, userID, id int, input crud.Record) (crud.Record, error) {
	return s.e.Update(ctx, userID, id, input)
}

func (s *BlogService) DeleteBlog(ctx context.Context, userID, id int) (crud.Record, error) {
	return s.e.Delete(ctx, userID, id)
}

// LikeBlog registers the caller's like on a blog. Liking is idempotent: a
// repeat like returns already=true without touching the counter, so the
// counter and the caller's liked set stay in step.
func (s *BlogService) LikeBlog(ctx context.Context, userID, blogID int) (already bool, err error) {
	v := common.NewValidator()
	v.Check(blogID > 0, "id", "must be a positive integer")
	if !v.Valid() {
		return false, v.ValidationError()
	}

	exists, err := s.m.userExists(ctx, userID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrUserNotFound
	}

	already, err = s.m.like(ctx, userID, blogID)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}

	s.col.Invalidate(blogID)
	return false, nil
}

// CommentBlog appends a comment under the caller's username. The comment
// list and its counter move together in a single update.
func (s *BlogService) CommentBlog(ctx context.Context, userID, blogID int, text string) error {
	v := common.NewValidator()
	v.Check(blogID > 0, "id", "must be a positive integer")
	v.Check(text != "", "comment", "must be provided")
	if !v.Valid() {
		return v.ValidationError()
	}

	username, err := s.m.getUsername(ctx, userID)
	if err != nil {
		return err
	}

	c := Comment{
		Username: username,
		Comment:  sanitizeText(text),
	}

	if err := s.m.comment(ctx, blogID, c); err != nil {
		return err
	}

	s.col.Invalidate(blogID)
	return nil
}
