package models

import "time"

// Comment represents a comment on a post. Only its count reaches the feed.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Content   string    `json:"content" gorm:"size:1000"`
	CreatedAt time.Time `json:"created_at"`
}
