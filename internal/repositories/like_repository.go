package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/picgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// FindLike returns nil without error when the user has not liked the post.
	FindLike(ctx context.Context, userID, postID uint) (*models.Like, error)
	// CreateLike inserts the edge unless it already exists.
	CreateLike(ctx context.Context, like *models.Like) (created bool, err error)
	DeleteLike(ctx context.Context, id uint) error
	GetLikesCountByPostID(ctx context.Context, postID uint) (int64, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) FindLike(ctx context.Context, userID, postID uint) (*models.Like, error) {
	var likes []models.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Limit(1).
		Find(&likes).Error
	if err != nil {
		return nil, fmt.Errorf("find like: %w", err)
	}
	if len(likes) == 0 {
		return nil, nil
	}
	return &likes[0], nil
}

func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(like)
	if res.Error != nil {
		return false, fmt.Errorf("create like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Like{}, id).Error; err != nil {
		return fmt.Errorf("delete like %d: %w", id, err)
	}
	return nil
}

func (r *PostgresLikeRepository) GetLikesCountByPostID(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// likedLookupBatch keeps each IN list well below Postgres' 65535 bind
// parameters, since the feed passes every post it returns.
const likedLookupBatch = 1000

// GetLikedPostIDs reports which of postIDs the user has liked.
func (r *PostgresLikeRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	for start := 0; start < len(postIDs); start += likedLookupBatch {
		end := min(start+likedLookupBatch, len(postIDs))
		var liked []uint
		err := r.db.WithContext(ctx).Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", userID, postIDs[start:end]).
			Pluck("post_id", &liked).Error
		if err != nil {
			return nil, fmt.Errorf("list liked posts: %w", err)
		}
		for _, id := range liked {
			result[id] = true
		}
	}
	return result, nil
}
