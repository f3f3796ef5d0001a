package blogservice

import (
	"database/sql"

	"github.com/sushihentaime/blogpress/internal/crud"
)

type BlogService struct {
	e   *crud.Engine
	m   *BlogModel
	col *crud.CachedCollection
}

type BlogModel struct {
	db *sql.DB
}

// Comment is a single entry of a blog's allComments list.
type Comment struct {
	Username string `json:"username"`
	Comment  string `json:"comment"`
}
