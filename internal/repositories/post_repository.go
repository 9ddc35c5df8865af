package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/picgram/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// ListFeed lists annotated posts newest first. A nil authorIDs means
	// every author; an empty non-nil slice matches nothing.
	ListFeed(ctx context.Context, authorIDs []uint) ([]models.FeedPost, error)
	ListCaptionsContaining(ctx context.Context, fragment string) ([]models.PostCaption, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post. Used by seeding only.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check post %d: %w", id, err)
	}
	return count > 0, nil
}

type feedRow struct {
	ID            uint
	Caption       string
	ImageURL      string
	CreatedAt     time.Time
	AuthorID      uint
	AuthorName    string
	AuthorImage   string
	LikesCount    int64
	CommentsCount int64
}

// ListFeed returns every post, or only those of authorIDs when it is non-nil.
// The feed has no row limit. authorIDs binds one parameter each, so a
// following list past Postgres' 65535 bind parameters fails the query.
func (r *PostgresPostRepository) ListFeed(ctx context.Context, authorIDs []uint) ([]models.FeedPost, error) {
	posts := []models.FeedPost{}
	if authorIDs != nil && len(authorIDs) == 0 {
		return posts, nil
	}

	tx := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(`posts.id, posts.caption, posts.image_url, posts.created_at,
			users.id AS author_id, users.name AS author_name, users.image AS author_image,
			(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count,
			(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count`).
		Joins("JOIN users ON users.id = posts.author_id")
	if authorIDs != nil {
		tx = tx.Where("posts.author_id IN ?", authorIDs)
	}

	var rows []feedRow
	if err := tx.Order("posts.created_at DESC").Order("posts.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	for _, row := range rows {
		posts = append(posts, models.FeedPost{
			ID:            row.ID,
			Caption:       row.Caption,
			ImageURL:      row.ImageURL,
			CreatedAt:     row.CreatedAt,
			Author:        models.UserCompact{ID: row.AuthorID, Name: row.AuthorName, Image: row.AuthorImage},
			LikesCount:    row.LikesCount,
			CommentsCount: row.CommentsCount,
		})
	}
	return posts, nil
}

// ListCaptionsContaining returns posts whose caption contains "#"+fragment,
// compared case-insensitively.
func (r *PostgresPostRepository) ListCaptionsContaining(ctx context.Context, fragment string) ([]models.PostCaption, error) {
	captions := []models.PostCaption{}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("id, caption").
		Where(`LOWER(caption) LIKE ? ESCAPE '\'`, containsPattern("#"+fragment)).
		Order("id ASC").
		Scan(&captions).Error
	if err != nil {
		return nil, fmt.Errorf("list captions: %w", err)
	}
	return captions, nil
}
