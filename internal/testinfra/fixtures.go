package testinfra

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/picgram/backend/internal/models"
)

// Fixtures inserts graph rows directly, bypassing the engine.
type Fixtures struct {
	t    testing.TB
	db   *gorm.DB
	base time.Time
	seq  int
}

// NewFixtures returns a fixture builder whose timestamps start at a fixed
// instant and advance one minute per created row.
func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db, base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *Fixtures) next() time.Time {
	f.seq++
	return f.base.Add(time.Duration(f.seq) * time.Minute)
}

// User creates a user named name with email <name>@example.com.
func (f *Fixtures) User(name string) models.User {
	f.t.Helper()
	u := models.User{
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		CreatedAt: f.next(),
	}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

// Post creates a post by author with the given caption.
func (f *Fixtures) Post(author models.User, caption string) models.Post {
	f.t.Helper()
	return f.PostAt(author, caption, f.next())
}

// PostAt creates a post with an explicit creation time.
func (f *Fixtures) PostAt(author models.User, caption string, at time.Time) models.Post {
	f.t.Helper()
	p := models.Post{
		AuthorID:  author.ID,
		Caption:   caption,
		ImageURL:  fmt.Sprintf("https://img.example.com/%d.jpg", f.seq),
		CreatedAt: at,
	}
	require.NoError(f.t, f.db.Create(&p).Error)
	return p
}

// Follow makes follower follow following.
func (f *Fixtures) Follow(follower, following models.User) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		CreatedAt:   f.next(),
	}).Error)
}

// Like makes user like post.
func (f *Fixtures) Like(user models.User, post models.Post) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Like{UserID: user.ID, PostID: post.ID, CreatedAt: f.next()}).Error)
}

// Comment adds a comment by user on post.
func (f *Fixtures) Comment(user models.User, post models.Post, content string) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Comment{
		UserID: user.ID, PostID: post.ID, Content: content, CreatedAt: f.next(),
	}).Error)
}
