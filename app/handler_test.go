package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/blogpress/internal/mediaservice"
)

func TestHealthcheck(t *testing.T) {
	app := &application{
		config: testConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ts := newTestServer(t, app.routes())

	status, env := ts.get(t, "/v1/healthcheck", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env["success"])

	data := env["data"].(map[string]any)
	assert.Equal(t, "testing", data["environment"])
}

func TestRegisterUser(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name           string
		payload        map[string]any
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "valid user",
			payload: map[string]any{
				"username": "alice1",
				"email":    "alice@example.com",
				"password": "Password!23",
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "User created successfully",
		},
		{
			name: "duplicate email",
			payload: map[string]any{
				"username": "alice2",
				"email":    "alice@example.com",
				"password": "Password!23",
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "User already exists",
		},
		{
			name: "duplicate username",
			payload: map[string]any{
				"username": "alice1",
				"email":    "alice2@example.com",
				"password": "Password!23",
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "User already exists",
		},
		{
			name: "weak password",
			payload: map[string]any{
				"username": "bobby2",
				"email":    "bobby@example.com",
				"password": "password",
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "validation failed",
		},
		{
			name: "missing fields",
			payload: map[string]any{
				"email": "carol@example.com",
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := ts.post(t, "/v1/auth/register", tc.payload, nil)
			assert.Equal(t, tc.expectedStatus, status)
			assert.Equal(t, tc.expectedMsg, env["message"])

			if status == http.StatusCreated {
				assert.Equal(t, true, env["success"])
				data := env["data"].(map[string]any)
				assert.NotEmpty(t, data["accessToken"])
				assert.NotEmpty(t, data["refreshToken"])
			} else {
				assert.Equal(t, false, env["success"])
			}
		})
	}
}

func TestLoginUser(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerTestUser(t, ts, "alice1", "alice@example.com")

	testCases := []struct {
		name           string
		payload        map[string]any
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "valid credentials",
			payload: map[string]any{
				"email":    "alice@example.com",
				"password": "Password!23",
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Login successful",
		},
		{
			name: "email is case-insensitive",
			payload: map[string]any{
				"email":    "ALICE@example.com",
				"password": "Password!23",
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Login successful",
		},
		{
			name: "wrong password",
			payload: map[string]any{
				"email":    "alice@example.com",
				"password": "WrongPassword!23",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid password",
		},
		{
			name: "unknown email",
			payload: map[string]any{
				"email":    "nobody@example.com",
				"password": "Password!23",
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Invalid email or user does not exist",
		},
		{
			name: "missing password",
			payload: map[string]any{
				"email": "alice@example.com",
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := ts.post(t, "/v1/auth/login", tc.payload, nil)
			assert.Equal(t, tc.expectedStatus, status)
			assert.Equal(t, tc.expectedMsg, env["message"])

			if status == http.StatusOK {
				data := env["data"].(map[string]any)
				assert.NotEmpty(t, data["accessToken"])
			}
		})
	}
}

func TestBlogLifecycle(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceToken := registerTestUser(t, ts, "alice1", "alice@example.com")
	bobToken := registerTestUser(t, ts, "bobby2", "bobby@example.com")

	// routes behind the middleware refuse anonymous callers
	status, env := ts.get(t, "/v1/blog", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "no token provided", env["message"])

	// an empty owned list is a not-found, by contract
	status, env = ts.get(t, "/v1/blog", &aliceToken)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no blogs found", env["message"])

	// create requires a cover image
	status, env = ts.postMultipart(t, "/v1/blog", map[string]string{
		"title":     "My First Blog",
		"aboutBlog": "It is about Go.",
	}, "", &aliceToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No file provided", env["message"])

	// missing title is reported by field name and the already uploaded
	// cover image is removed again
	status, env = ts.postMultipart(t, "/v1/blog", map[string]string{
		"aboutBlog": "It is about Go.",
	}, "cover.png", &aliceToken)
	assert.Equal(t, http.StatusBadRequest, status)
	errs := env["error"].(map[string]any)
	assert.Equal(t, "must be provided", errs["title"])

	uploader := app.uploader.(*mediaservice.MockUploader)
	uploader.AssertCalled(t, "Delete", "https://cdn.example.com/test-cover.png")

	status, env = ts.postMultipart(t, "/v1/blog", map[string]string{
		"title":     "My First Blog",
		"aboutBlog": "It is about Go.",
	}, "cover.png", &aliceToken)
	assert.Equal(t, http.StatusCreated, status)
	blog := env["data"].(map[string]any)
	assert.Equal(t, "My First Blog", blog["title"])
	assert.Equal(t, "https://cdn.example.com/test-cover.png", blog["imageurl"])
	blogID := int(blog["id"].(float64))

	blogPath := fmt.Sprintf("/v1/blog/%d", blogID)

	// owner reads succeed, foreign reads are forbidden
	status, _ = ts.get(t, blogPath, &aliceToken)
	assert.Equal(t, http.StatusOK, status)

	status, env = ts.get(t, blogPath, &bobToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "you do not own this resource", env["message"])

	status, env = ts.patch(t, blogPath, map[string]any{"title": "Retitled"}, &bobToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = ts.patch(t, blogPath, map[string]any{"title": "Retitled"}, &aliceToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Retitled", env["data"].(map[string]any)["title"])

	// anyone can like, and a repeat like does not double count
	status, env = ts.post(t, "/v1/blog/like/"+fmt.Sprint(blogID), nil, &bobToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Blog liked successfully", env["message"])

	status, env = ts.post(t, "/v1/blog/like/"+fmt.Sprint(blogID), nil, &bobToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Blog already liked", env["message"])

	status, env = ts.post(t, "/v1/blog/comment/"+fmt.Sprint(blogID), map[string]any{"comment": "Nice one"}, &bobToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Comment added successfully", env["message"])

	status, env = ts.get(t, blogPath, &aliceToken)
	assert.Equal(t, http.StatusOK, status)
	blog = env["data"].(map[string]any)
	assert.Equal(t, float64(1), blog["likes"])
	assert.Equal(t, float64(1), blog["comments"])
	comments := blog["allComments"].([]any)
	assert.Len(t, comments, 1)
	assert.Equal(t, "bobby2", comments[0].(map[string]any)["username"])

	// the ghost feed shows only other people's blogs
	status, env = ts.get(t, "/v1/blog/ghost", &bobToken)
	assert.Equal(t, http.StatusOK, status)
	feed := env["data"].([]any)
	assert.Len(t, feed, 1)

	status, env = ts.get(t, "/v1/blog/ghost", &aliceToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, env["data"])

	// only the owner may delete; success is an empty 204
	status, _ = ts.delete(t, blogPath, &bobToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = ts.delete(t, blogPath, &aliceToken)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, env)

	status, env = ts.get(t, blogPath, &aliceToken)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "blog does not exist", env["message"])
}
