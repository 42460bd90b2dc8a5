package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"microblog/internal/auth"
	"microblog/internal/mail"
	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "service-test-secret-with-enough-length"

type services struct {
	db       *gorm.DB
	users    *UserService
	follows  *FollowService
	feed     *FeedService
	password *PasswordService
	tokens   *auth.Tokens
	mailer   *recordingMailer
}

func newServices(t *testing.T, perPage int) *services {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	tokens := auth.NewTokens(testSecret)
	mailer := &recordingMailer{}

	return &services{
		db:       db,
		users:    NewUserService(userRepo, followRepo, tokens, time.Hour),
		follows:  NewFollowService(db, followRepo, userRepo),
		feed:     NewFeedService(postRepo, userRepo, perPage),
		password: NewPasswordService(userRepo, tokens, mailer, PasswordConfig{Sender: "no-reply@microblog.test", BaseURL: "http://microblog.test", TokenTTL: 10 * time.Minute}),
		tokens:   tokens,
		mailer:   mailer,
	}
}

func (s *services) register(t *testing.T, username, email string) *models.User {
	t.Helper()
	u, err := s.users.Register(context.Background(), RegisterInput{
		Username:  username,
		Email:     email,
		Password:  "secret123",
		Password2: "secret123",
	})
	require.NoError(t, err)
	return u
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

func postBodies(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Body)
	}
	return out
}
