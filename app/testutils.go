package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sushihentaime/blogpress/internal/blogservice"
	"github.com/sushihentaime/blogpress/internal/common"
	"github.com/sushihentaime/blogpress/internal/mediaservice"
	"github.com/sushihentaime/blogpress/internal/userservice"
)

// mockProducer records published events instead of talking to RabbitMQ.
type mockProducer struct {
	mu        sync.Mutex
	published [][]byte
}

func (p *mockProducer) Publish(_ context.Context, msg []byte, _ common.BindingKey, _ common.Exchange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
	return nil
}

func testConfig() *Config {
	return &Config{
		Port:             ":4000",
		Environment:      "testing",
		Version:          "1.0.0",
		RateLimitRPS:     100,
		RateLimitBurst:   200,
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    7 * 24 * time.Hour,
	}
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	cfg := testConfig()

	uploader := new(mediaservice.MockUploader)
	uploader.On("Upload", mock.Anything, mock.Anything).Return("https://cdn.example.com/test-cover.png", nil).Maybe()
	uploader.On("Delete", mock.Anything).Return(nil).Maybe()

	tokenConfig := userservice.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	}

	app := &application{
		config:      cfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		userService: userservice.NewUserService(db, &mockProducer{}, tokenConfig),
		blogService: blogservice.NewBlogService(db, cache),
		uploader:    uploader,
	}

	return app, db
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, envelope) {
	t.Helper()

	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	if len(responseBody) == 0 {
		return res.StatusCode, nil
	}

	var env envelope
	err = json.Unmarshal(responseBody, &env)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, env
}

func (ts *testServer) do(t *testing.T, method, path string, payload any, token *string) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) post(t *testing.T, path string, payload any, token *string) (int, envelope) {
	return ts.do(t, http.MethodPost, path, payload, token)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, envelope) {
	return ts.do(t, http.MethodGet, path, nil, token)
}

func (ts *testServer) patch(t *testing.T, path string, payload any, token *string) (int, envelope) {
	return ts.do(t, http.MethodPatch, path, payload, token)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, envelope) {
	return ts.do(t, http.MethodDelete, path, nil, token)
}

// postMultipart submits a multipart form with an optional "file" part, the
// shape the blog create endpoint expects.
func (ts *testServer) postMultipart(t *testing.T, path string, fields map[string]string, filename string, token *string) (int, envelope) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		err := writer.WriteField(key, value)
		if err != nil {
			t.Fatal(err)
		}
	}

	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, err = part.Write([]byte("fake image bytes"))
		if err != nil {
			t.Fatal(err)
		}
	}

	err := writer.Close()
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

// registerTestUser registers a fresh account through the API and returns
// its access token.
func registerTestUser(t *testing.T, ts *testServer, username, email string) string {
	t.Helper()

	status, env := ts.post(t, "/v1/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "Password!23",
	}, nil)
	assert.Equal(t, http.StatusCreated, status)

	data, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected token data, got %s", env.JSON())
	}

	token, _ := data["accessToken"].(string)
	assert.NotEmpty(t, token)

	return token
}
