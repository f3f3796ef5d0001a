package userservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/blogpress/internal/common"
)

type UserService struct {
	m   *DBModel
	mb  common.MessageProducer
	tok TokenConfig
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"-"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// Identity is the resolved caller attached to the request context by the
// authentication middleware.
type Identity struct {
	ID       int
	Username string
}

// TokenConfig carries the signing secrets and lifetimes for the JWT
// access/refresh pair.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is the credential set returned on register and login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
