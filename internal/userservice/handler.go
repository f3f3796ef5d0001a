package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sushihentaime/blogpress/internal/common"
	"github.com/sushihentaime/blogpress/internal/crud"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("invalid password")
)

// userFields is the declarative registration schema; likedBlogs is an
// optional seed of blog ids the new account already likes.
var userFields = crud.Schema{
	{Name: "username", Validate: crud.IsString, Required: true},
	{Name: "password", Validate: crud.IsString, Required: true},
	{Name: "email", Validate: crud.IsString, Required: true},
	{Name: "likedBlogs", Validate: crud.IsArray, Default: []any{}},
}

func NewUserService(db *sql.DB, mb common.MessageProducer, tok TokenConfig) *UserService {
	return &UserService{
		m:   newUserModel(db),
		mb:  mb,
		tok: tok,
	}
}

// RegisterUser creates a new account from a raw input record, publishes a
// user.created event and returns a signed token pair.
func (s *UserService) RegisterUser(ctx context.Context, input crud.Record) (*TokenPair, error) {
	norm, err := crud.Normalize(input, userFields, false)
	if err != nil {
		return nil, err
	}

	username, _ := norm["username"].(string)
	email, _ := norm["email"].(string)
	password, _ := norm["password"].(string)

	// Emails are stored lowercase so uniqueness is case-insensitive.
	email = strings.ToLower(email)

	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Email:    email,
		Password: Password{Plain: password},
	}

	err = u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	if err := s.m.seedLikedBlogs(ctx, u.ID, toIDs(norm["likedBlogs"])); err != nil {
		return nil, err
	}

	data := struct {
		Email    string
		Username string
	}{
		Email:    u.Email,
		Username: u.Username,
	}

	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	err = s.mb.Publish(ctx, eventData, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		return nil, err
	}

	return newTokenPair(&u, s.tok)
}

// LoginUser authenticates by email and password and returns a fresh token
// pair. An unknown email and a wrong password are distinct failures.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*TokenPair, error) {
	v := common.NewValidator()
	v.Check(email != "", "email", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	return newTokenPair(user, s.tok)
}

// GetUserByID looks up a user, typically to resolve a display name.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	v.Check(id > 0, "user_id", "must be greater than zero")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getUserByID(ctx, id)
}

// toIDs converts the decoded likedBlogs array to blog ids, ignoring
// entries that are not positive integers.
func toIDs(v any) []int64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if crud.IsID(item) {
			switch n := item.(type) {
			case int:
				ids = append(ids, int64(n))
			case int64:
				ids = append(ids, n)
			case float64:
				ids = append(ids, int64(n))
			}
		}
	}

	return ids
}
