package models

import "time"

// Post is created by the authoring flow; the feed engine only reads it.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Caption   string    `json:"caption" gorm:"size:2200"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"-"`
}

// FeedPost is a post annotated for a specific viewer.
// The full liker and commenter lists are never exposed.
type FeedPost struct {
	ID            uint        `json:"id"`
	Caption       string      `json:"caption"`
	ImageURL      string      `json:"image_url"`
	CreatedAt     time.Time   `json:"created_at"`
	Author        UserCompact `json:"author"`
	LikesCount    int64       `json:"likes_count"`
	CommentsCount int64       `json:"comments_count"`
	IsLiked       bool        `json:"is_liked"`
}

// PostCaption is the projection scanned by hashtag search
type PostCaption struct {
	ID      uint
	Caption string
}

// HashtagCount is a tag and the number of posts using it
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// FeedRequest is bound from the feed query string
type FeedRequest struct {
	Type string `query:"type" validate:"omitempty,oneof=all following"`
}

// LimitRequest is bound from list endpoints accepting ?limit=
type LimitRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// SearchRequest is bound from the search query string
type SearchRequest struct {
	Query string `query:"q" validate:"max=100"`
}
