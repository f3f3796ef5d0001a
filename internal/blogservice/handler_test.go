package blogservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/blogpress/internal/common"
	"github.com/sushihentaime/blogpress/internal/crud"
)

// setupTestUser is a helper function to create a test user in the database.
func setupTestUser(db *sql.DB, username, email string) (int, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int
	err = db.QueryRow(query, username, email, randomBytes).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, int) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	userID, err := setupTestUser(db, "testuser1", "testuser1@example.com")
	assert.NoError(t, err)

	return NewBlogService(db, cache), db, userID
}

func createTestBlog(t *testing.T, s *BlogService, ownerID int, title string) int {
	t.Helper()

	blog, err := s.CreateBlog(context.Background(), ownerID, crud.Record{
		"title":     title,
		"aboutBlog": "About " + title,
	}, "")
	assert.NoError(t, err)

	return blog["id"].(int)
}

func TestCreateBlog(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	testCases := []struct {
		name        string
		ownerID     int
		input       crud.Record
		imageurl    string
		expectedErr error
	}{
		{
			name:    "valid blog",
			ownerID: userID,
			input: crud.Record{
				"title":     "Test Blog",
				"aboutBlog": "This is a test blog.",
			},
			imageurl: "https://example.com/cover.png",
		},
		{
			name:        "missing title",
			ownerID:     userID,
			input:       crud.Record{"aboutBlog": "This is a test blog."},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name:        "missing about",
			ownerID:     userID,
			input:       crud.Record{"title": "Test Blog"},
			expectedErr: common.ValidationError{Errors: map[string]string{"aboutBlog": "must be provided"}},
		},
		{
			name:    "unknown owner",
			ownerID: 999,
			input: crud.Record{
				"title":     "Test Blog",
				"aboutBlog": "This is a test blog.",
			},
			expectedErr: ErrUserForeignKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			blog, err := s.CreateBlog(ctx, tc.ownerID, tc.input, tc.imageurl)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.Equal(t, tc.input["title"], blog["title"])
				assert.Equal(t, tc.imageurl, blog["imageurl"])
				assert.Equal(t, 0, blog["likes"])
				assert.Equal(t, 0, blog["comments"])
				assert.Equal(t, []Comment{}, blog["allComments"])
				assert.Equal(t, tc.ownerID, blog.OwnerID())
				assert.NotContains(t, blog, "version")
			}

			t.Cleanup(func() {
				_, err := db.Exec("DELETE FROM blogs")
				assert.NoError(t, err)
			})
		})
	}
}

func TestGetBlogByID(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	otherID, err := setupTestUser(db, "testuser2", "testuser2@example.com")
	assert.NoError(t, err)

	blogID := createTestBlog(t, s, userID, "Test Blog")

	testCases := []struct {
		name        string
		callerID    int
		id          int
		expectedErr error
	}{
		{name: "owner", callerID: userID, id: blogID},
		{name: "foreign caller", callerID: otherID, id: blogID, expectedErr: common.ErrNotOwner},
		{name: "missing blog", callerID: userID, id: 999, expectedErr: common.ErrRecordNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog, err := s.GetBlogByID(context.Background(), tc.callerID, tc.id)
			if tc.expectedErr != nil {
				assert.Nil(t, blog)
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "Test Blog", blog["title"])
			}
		})
	}
}

func TestListBlogs(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	otherID, err := setupTestUser(db, "testuser2", "testuser2@example.com")
	assert.NoError(t, err)

	ctx := context.Background()

	// the owned list reports an empty page as not found
	_, err = s.ListBlogs(ctx, userID, 1)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	for i := 1; i <= 6; i++ {
		createTestBlog(t, s, userID, fmt.Sprintf("Blog %d", i))
	}
	createTestBlog(t, s, otherID, "Foreign Blog")

	page1, err := s.ListBlogs(ctx, userID, 1)
	assert.NoError(t, err)
	assert.Len(t, page1, 5)
	assert.Equal(t, "Blog 1", page1[0]["title"])

	page2, err := s.ListBlogs(ctx, userID, 2)
	assert.NoError(t, err)
	assert.Len(t, page2, 1)
	assert.Equal(t, "Blog 6", page2[0]["title"])

	_, err = s.ListBlogs(ctx, userID, 3)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestGhostBlogs(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	otherID, err := setupTestUser(db, "testuser2", "testuser2@example.com")
	assert.NoError(t, err)

	ctx := context.Background()

	// the ghost feed tolerates an empty page
	empty, err := s.GhostBlogs(ctx, userID, 1)
	assert.NoError(t, err)
	assert.Empty(t, empty)

	createTestBlog(t, s, userID, "Mine")
	createTestBlog(t, s, otherID, "Theirs")

	feed, err := s.GhostBlogs(ctx, userID, 1)
	assert.NoError(t, err)
	assert.Len(t, feed, 1)
	assert.Equal(t, "Theirs", feed[0]["title"])
}

func TestUpdateBlog(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	otherID, err := setupTestUser(db, "testuser2", "testuser2@example.com")
	assert.NoError(t, err)

	blogID := createTestBlog(t, s, userID, "Before")

	ctx := context.Background()

	updated, err := s.UpdateBlog(ctx, userID, blogID, crud.Record{"title": "After"})
	assert.NoError(t, err)
	assert.Equal(t, "After", updated["title"])
	assert.Equal(t, "About Before", updated["aboutBlog"])

	// ownership never changes through an update
	updated, err = s.UpdateBlog(ctx, userID, blogID, crud.Record{crud.OwnerField: otherID})
	assert.NoError(t, err)
	assert.Equal(t, userID, updated.OwnerID())

	_, err = s.UpdateBlog(ctx, otherID, blogID, crud.Record{"title": "Hijacked"})
	assert.ErrorIs(t, err, common.ErrNotOwner)

	_, err = s.UpdateBlog(ctx, userID, 999, crud.Record{"title": "Ghost"})
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestDeleteBlog(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	otherID, err := setupTestUser(db, "testuser2", "testuser2@example.com")
	assert.NoError(t, err)

	blogID := createTestBlog(t, s, userID, "Doomed")

	ctx := context.Background()

	_, err = s.DeleteBlog(ctx, otherID, blogID)
	assert.ErrorIs(t, err, common.ErrNotOwner)

	deleted, err := s.DeleteBlog(ctx, userID, blogID)
	assert.NoError(t, err)
	assert.Equal(t, "Doomed", deleted["title"])

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM blogs WHERE id = $1", blogID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLikeBlog(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	blogID := createTestBlog(t, s, userID, "Likeable")

	ctx := context.Background()

	already, err := s.LikeBlog(ctx, userID, blogID)
	assert.NoError(t, err)
	assert.False(t, already)

	// a repeat like is acknowledged without touching the counter
	already, err = s.LikeBlog(ctx, userID, blogID)
	assert.NoError(t, err)
	assert.True(t, already)

	var likes int
	err = db.QueryRow("SELECT likes FROM blogs WHERE id = $1", blogID).Scan(&likes)
	assert.NoError(t, err)
	assert.Equal(t, 1, likes)

	var liked bool
	err = db.QueryRow("SELECT EXISTS (SELECT 1 FROM user_liked_blogs WHERE user_id = $1 AND blog_id = $2)", userID, blogID).Scan(&liked)
	assert.NoError(t, err)
	assert.True(t, liked)

	_, err = s.LikeBlog(ctx, 999, blogID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.LikeBlog(ctx, userID, 999)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestLikeBlogConcurrent(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	blogID := createTestBlog(t, s, userID, "Contended")

	ctx := context.Background()

	const attempts = 8

	var wg sync.WaitGroup
	results := make([]bool, attempts)
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.LikeBlog(ctx, userID, blogID)
		}(i)
	}
	wg.Wait()

	// exactly one call wins the insert; the rest see the like as existing
	var firsts int
	for i := 0; i < attempts; i++ {
		assert.NoError(t, errs[i])
		if !results[i] {
			firsts++
		}
	}
	assert.Equal(t, 1, firsts)

	var likes int
	err := db.QueryRow("SELECT likes FROM blogs WHERE id = $1", blogID).Scan(&likes)
	assert.NoError(t, err)
	assert.Equal(t, 1, likes)

	var liked int
	err = db.QueryRow("SELECT COUNT(*) FROM user_liked_blogs WHERE user_id = $1 AND blog_id = $2", userID, blogID).Scan(&liked)
	assert.NoError(t, err)
	assert.Equal(t, 1, liked)
}

func TestCommentBlog(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	blogID := createTestBlog(t, s, userID, "Commentable")

	ctx := context.Background()

	err := s.CommentBlog(ctx, userID, blogID, "First!")
	assert.NoError(t, err)

	err = s.CommentBlog(ctx, userID, blogID, `Nice post<script>alert(1)</script>`)
	assert.NoError(t, err)

	blog, err := s.GetBlogByID(ctx, userID, blogID)
	assert.NoError(t, err)
	assert.Equal(t, 2, blog["comments"])
	assert.Equal(t, []Comment{
		{Username: "testuser1", Comment: "First!"},
		{Username: "testuser1", Comment: "Nice post"},
	}, blog["allComments"])

	err = s.CommentBlog(ctx, userID, blogID, "")
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"comment": "must be provided"}}, err)

	err = s.CommentBlog(ctx, 999, blogID, "Hello")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = s.CommentBlog(ctx, userID, 999, "Hello")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	var comments int
	err = db.QueryRow("SELECT comments FROM blogs WHERE id = $1", blogID).Scan(&comments)
	assert.NoError(t, err)
	assert.Equal(t, 2, comments)
}
