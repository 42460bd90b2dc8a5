package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxPostBodyLen is the longest accepted post body, in characters.
const MaxPostBodyLen = 140

// Post represents a short post authored by a single user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"size:140;not null" json:"body"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_posts_timestamp" json:"timestamp"`
	UserID    uint      `gorm:"not null;index:idx_posts_user_id" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"author"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate defaults the timestamp to the current UTC time.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	return nil
}
