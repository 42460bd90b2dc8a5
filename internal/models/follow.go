package models

import "time"

// Follow is a directed edge from Follower to Followed. The pair is the primary
// key, so an edge exists at most once.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false;index:idx_follows_followed_id" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowState is the follow relation between a viewer and a target as seen
// right after a follow or unfollow. FollowerCount belongs to the target and
// FollowingCount to the viewer.
type FollowState struct {
	Following      bool  `json:"following"`
	Changed        bool  `json:"changed"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}

// Profile is the public view of a user together with social-graph counts.
type Profile struct {
	User           *User `json:"user"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
	IsSelf         bool  `json:"is_self"`
}
