// Package seed populates a database with demo users, posts and follows for
// development. It is not used by the server.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"microblog/internal/middleware"
	"microblog/internal/models"
	"microblog/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumPosts       int
	FollowsPerUser int
	ShouldClean    bool
	// RandSeed makes runs reproducible; zero picks a random seed.
	RandSeed int64
	// MaxDays bounds how far back post timestamps are spread.
	MaxDays int
}

// Result reports what a seeding run created.
type Result struct {
	Users   []models.User
	Posts   int
	Follows int
}

// Seed populates the database with demo data
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	log := middleware.Logger
	log.InfoContext(ctx, "Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
	)

	if opts.ShouldClean {
		if err := Clear(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	faker := gofakeit.New(opts.RandSeed)

	users, err := createUsers(ctx, db, faker, opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	log.InfoContext(ctx, "Users created", slog.Int("count", len(users)))

	follows, err := createFollows(ctx, db, faker, users, opts.FollowsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}
	log.InfoContext(ctx, "Follows created", slog.Int("count", follows))

	posts, err := createPosts(ctx, db, faker, users, opts.NumPosts, opts.MaxDays)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	log.InfoContext(ctx, "Posts created", slog.Int("count", posts))

	return &Result{Users: users, Posts: posts, Follows: follows}, nil
}

// Clear removes all follows, posts and users, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Follow{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(ctx context.Context, db *gorm.DB, faker *gofakeit.Faker, count int) ([]models.User, error) {
	if count <= 0 {
		return nil, nil
	}

	// One hash for everyone; bcrypt per user makes large seeds crawl.
	template := models.User{}
	if err := template.SetPassword(DemoPassword); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for _, name := range []string{"alice", "bob"} {
		if len(users) == count {
			break
		}
		users = append(users, newUser(name, template.PasswordHash, faker))
	}
	for i := len(users); i < count; i++ {
		name := fmt.Sprintf("%s%d", sanitizeUsername(faker.Username()), i)
		users = append(users, newUser(name, template.PasswordHash, faker))
	}

	if err := db.WithContext(ctx).CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func newUser(username string, hash *string, faker *gofakeit.Faker) models.User {
	h := *hash
	return models.User{
		Username:     username,
		Email:        strings.ToLower(username) + "@example.com",
		PasswordHash: &h,
		AboutMe:      truncate(faker.Sentence(8), models.MaxAboutMeLen),
	}
}

// sanitizeUsername keeps only characters accepted in usernames.
func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf && (r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		out = "user"
	}
	if len(out) > 48 {
		out = out[:48]
	}
	return out
}

func createFollows(ctx context.Context, db *gorm.DB, faker *gofakeit.Faker, users []models.User, perUser int) (int, error) {
	if perUser <= 0 || len(users) < 2 {
		return 0, nil
	}

	repo := repository.NewFollowRepository(db)
	created := 0
	for _, follower := range users {
		for i := 0; i < perUser; i++ {
			target := users[faker.Number(0, len(users)-1)]
			if target.ID == follower.ID {
				continue
			}
			ok, err := repo.Create(ctx, follower.ID, target.ID)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

func createPosts(ctx context.Context, db *gorm.DB, faker *gofakeit.Faker, users []models.User, count, maxDays int) (int, error) {
	if count <= 0 || len(users) == 0 {
		return 0, nil
	}
	if maxDays <= 0 {
		maxDays = 30
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(maxDays) * 24 * time.Hour)

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[faker.Number(0, len(users)-1)]
		posts = append(posts, models.Post{
			Body:      truncate(faker.Sentence(faker.Number(3, 20)), models.MaxPostBodyLen),
			UserID:    author.ID,
			Timestamp: faker.DateRange(start, end).UTC(),
		})
	}

	if err := db.WithContext(ctx).CreateInBatches(&posts, 100).Error; err != nil {
		return 0, err
	}
	return len(posts), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
