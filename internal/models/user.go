// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	MaxUsernameLen = 64
	MaxEmailLen    = 120
	MaxAboutMeLen  = 140
)

// User is a registered account. Its posts and follow edges are reached through
// repository queries rather than loaded onto the struct.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:64;not null;uniqueIndex:idx_users_username" json:"username"`
	Email        string     `gorm:"size:120;not null;uniqueIndex:idx_users_email" json:"-"`
	PasswordHash *string    `gorm:"size:256" json:"-"`
	AboutMe      string     `gorm:"size:140" json:"about_me"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// SetPassword stores a bcrypt hash of plain. The plaintext is never kept.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hashed)
	u.PasswordHash = &h
	return nil
}

// CheckPassword reports whether plain matches the stored hash. A user without
// a password never matches.
func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(plain)) == nil
}
