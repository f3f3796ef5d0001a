package blogservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/sushihentaime/blogpress/internal/common"
	"github.com/sushihentaime/blogpress/internal/crud"
)

var (
	ErrUserNotFound   = errors.New("user does not exist")
	ErrUserForeignKey = errors.New("owner does not exist")
)

// columnFor maps wire field names to blogs table columns for dynamic
// update statements. ownerId is deliberately absent: ownership is
// immutable after creation.
var columnFor = map[string]string{
	"title":       "title",
	"aboutBlog":   "about_blog",
	"imageurl":    "imageurl",
	"likes":       "likes",
	"comments":    "comments",
	"allComments": "all_comments",
}

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *BlogModel) Name() string {
	return "blogs"
}

const blogColumns = "id, title, about_blog, imageurl, likes, comments, all_comments, owner_id, created_at, updated_at, version"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (crud.Record, error) {
	var (
		id, likes, comments, ownerID, version int
		title, aboutBlog, imageurl            string
		rawComments                           []byte
		createdAt, updatedAt                  time.Time
	)

	err := row.Scan(&id, &title, &aboutBlog, &imageurl, &likes, &comments, &rawComments, &ownerID, &createdAt, &updatedAt, &version)
	if err != nil {
		return nil, err
	}

	allComments := []Comment{}
	if len(rawComments) > 0 {
		if err := json.Unmarshal(rawComments, &allComments); err != nil {
			return nil, fmt.Errorf("could not decode comments: %w", err)
		}
	}

	return crud.Record{
		"id":            id,
		"title":         title,
		"aboutBlog":     aboutBlog,
		"imageurl":      imageurl,
		"likes":         likes,
		"comments":      comments,
		"allComments":   allComments,
		crud.OwnerField: ownerID,
		"createdAt":     createdAt,
		"updatedAt":     updatedAt,
		"version":       version,
	}, nil
}

func (m *BlogModel) selectPage(ctx context.Context, where string, ownerID, limit, offset int) ([]crud.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		WHERE %s
		ORDER BY id
		LIMIT $2 OFFSET $3`, blogColumns, where)

	rows, err := m.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []crud.Record
	for rows.Next() {
		rec, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

func (m *BlogModel) SelectOwned(ctx context.Context, ownerID, limit, offset int) ([]crud.Record, error) {
	return m.selectPage(ctx, "owner_id = $1", ownerID, limit, offset)
}

func (m *BlogModel) SelectOthers(ctx context.Context, ownerID, limit, offset int) ([]crud.Record, error) {
	return m.selectPage(ctx, "owner_id <> $1", ownerID, limit, offset)
}

func (m *BlogModel) Get(ctx context.Context, id int) (crud.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		WHERE id = $1`, blogColumns)

	rec, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return rec, nil
}

func (m *BlogModel) Insert(ctx context.Context, rec crud.Record) (crud.Record, error) {
	query := fmt.Sprintf(`
		INSERT INTO blogs (title, about_blog, imageurl, likes, comments, all_comments, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, blogColumns)

	rawComments, err := json.Marshal(rec["allComments"])
	if err != nil {
		return nil, err
	}

	args := []any{
		rec["title"],
		rec["aboutBlog"],
		rec["imageurl"],
		toInt(rec["likes"]),
		toInt(rec["comments"]),
		rawComments,
		rec.OwnerID(),
	}

	created, err := scanBlog(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_owner_id_fkey"):
			return nil, ErrUserForeignKey
		default:
			return nil, err
		}
	}

	return created, nil
}

// Update builds a single SET statement from the supplied fields so a
// partial update is applied atomically.
func (m *BlogModel) Update(ctx context.Context, id int, fields crud.Record) (crud.Record, error) {
	set := make([]string, 0, len(fields)+2)
	args := make([]any, 0, len(fields)+1)

	for _, f := range blogFields {
		value, ok := fields[f.Name]
		if !ok {
			continue
		}
		column, ok := columnFor[f.Name]
		if !ok {
			continue
		}

		switch f.Name {
		case "allComments":
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			value = raw
		case "likes", "comments":
			value = toInt(value)
		}

		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if len(set) == 0 {
		return m.Get(ctx, id)
	}

	set = append(set, "version = version + 1", "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE blogs
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(set, ", "), len(args), blogColumns)

	rec, err := scanBlog(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return rec, nil
}

func (m *BlogModel) Delete(ctx context.Context, id int) (crud.Record, error) {
	query := fmt.Sprintf(`
		DELETE FROM blogs
		WHERE id = $1
		RETURNING %s`, blogColumns)

	rec, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return rec, nil
}

func (m *BlogModel) userExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

func (m *BlogModel) getUsername(ctx context.Context, id int) (string, error) {
	var username string
	err := m.db.QueryRowContext(ctx, "SELECT username FROM users WHERE id = $1", id).Scan(&username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", ErrUserNotFound
		default:
			return "", err
		}
	}

	return username, nil
}

// like records the like in the caller's liked set and increments the
// blog's counter inside one transaction. The set insert decides: when
// ON CONFLICT DO NOTHING touches no row the like already exists and the
// counter is left alone, so concurrent likes from the same user cannot
// double-increment.
func (m *BlogModel) like(ctx context.Context, userID, blogID int) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO user_liked_blogs (user_id, blog_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", userID, blogID)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case ForeignKeyError(err, "user_liked_blogs_blog_id_fkey"):
			return false, common.ErrRecordNotFound
		case ForeignKeyError(err, "user_liked_blogs_user_id_fkey"):
			return false, ErrUserNotFound
		default:
			return false, err
		}
	}

	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if rows == 0 {
		_ = tx.Rollback()
		return true, nil
	}

	_, err = tx.ExecContext(ctx, "UPDATE blogs SET likes = likes + 1, version = version + 1 WHERE id = $1", blogID)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}

	return false, tx.Commit()
}

// comment appends the entry to all_comments and bumps the counter in one
// combined update.
func (m *BlogModel) comment(ctx context.Context, blogID int, c Comment) error {
	query := `
		UPDATE blogs
		SET comments = comments + 1,
			all_comments = all_comments || jsonb_build_object('username', $2::text, 'comment', $3::text),
			version = version + 1,
			updated_at = now()
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, blogID, c.Username, c.Comment)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return common.ErrRecordNotFound
	}

	return nil
}

// toInt normalizes the numeric forms accepted by the schema (ints, JSON
// float64s and numeric form strings) for storage.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int(f)
	default:
		return 0
	}
}
