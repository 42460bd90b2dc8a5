package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"microblog/internal/config"
	"microblog/internal/mail"
	"microblog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMailer is a mock of the mail.Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            "server-test-secret-with-enough-length",
		PublicURL:            "http://microblog.test",
		MailSender:           "no-reply@microblog.test",
		ResetTokenTTLSeconds: 600,
		SessionTTLHours:      1,
		PostsPerPage:         25,
	}
}

func newTestApp(t *testing.T, rdb *redis.Client, mailer mail.Mailer) *fiber.App {
	t.Helper()
	srv, err := NewServerWithDeps(testConfig(), testutil.NewSQLiteDB(t), rdb, mailer)
	require.NoError(t, err)
	return srv.App()
}

// do sends a JSON request and returns the status and raw body.
func do(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func register(t *testing.T, app *fiber.App, username string) {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":  username,
		"email":     username + "@x.com",
		"password":  "secret123",
		"password2": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
}

func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	return decode[struct {
		Token string `json:"token"`
	}](t, body).Token
}

func signup(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	register(t, app, username)
	return login(t, app, username, "secret123")
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type postPage struct {
	Posts []struct {
		ID     uint   `json:"id"`
		Body   string `json:"body"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"posts"`
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
}

func (p postPage) bodies() []string {
	out := make([]string, 0, len(p.Posts))
	for _, post := range p.Posts {
		out = append(out, post.Body)
	}
	return out
}
