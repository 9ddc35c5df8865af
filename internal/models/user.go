package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is owned by the identity provider; the social graph only reads it.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;index"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Image       string    `json:"image,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"-"`
}

// UserCompact is the author block embedded in posts
type UserCompact struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// ToCompact converts a user into its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, Image: u.Image}
}

// UserSummary is a user row with derived relation counts.
// Counts are computed by the store at read time and never persisted.
type UserSummary struct {
	ID             uint       `json:"id"`
	Name           string     `json:"name"`
	Image          string     `json:"image,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	PostsCount     int64      `json:"posts_count"`
	FollowersCount int64      `json:"followers_count"`
	FollowedAt     *time.Time `json:"followed_at,omitempty"`
}

// FollowStatus describes the relation between the viewer and a profile
type FollowStatus struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
	IsFollowedBy   bool  `json:"is_followed_by"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
