package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/picgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	// FindFollow returns nil without error when no edge exists.
	FindFollow(ctx context.Context, followerID, followingID uint) (*models.Follow, error)
	// CreateFollow inserts the edge unless it already exists; created
	// reports which happened. Constraint violations other than the
	// (follower, following) uniqueness are returned as errors.
	CreateFollow(ctx context.Context, follow *models.Follow) (created bool, err error)
	DeleteFollow(ctx context.Context, id uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFollowers(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) FindFollow(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Limit(1).
		Find(&follows).Error
	if err != nil {
		return nil, fmt.Errorf("find follow: %w", err)
	}
	if len(follows) == 0 {
		return nil, nil
	}
	return &follows[0], nil
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(follow)
	if res.Error != nil {
		return false, fmt.Errorf("create follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteFollow removes an edge by id. Deleting an edge a concurrent toggle
// already removed is not an error.
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Follow{}, id).Error; err != nil {
		return fmt.Errorf("delete follow %d: %w", id, err)
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count following: %w", err)
	}
	return count, nil
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list following ids: %w", err)
	}
	return ids, nil
}

// ListFollowers lists the users following userID, most recent first.
func (r *PostgresFollowRepository) ListFollowers(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	return r.listRelated(ctx, "follows.follower_id", "follows.following_id", userID, limit)
}

// ListFollowing lists the users userID follows, most recent first.
func (r *PostgresFollowRepository) ListFollowing(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	return r.listRelated(ctx, "follows.following_id", "follows.follower_id", userID, limit)
}

func (r *PostgresFollowRepository) listRelated(ctx context.Context, joinCol, filterCol string, userID uint, limit int) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	err := r.db.WithContext(ctx).
		Table("follows").
		Select(userSummaryColumns+", follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = "+joinCol).
		Where(filterCol+" = ?", userID).
		Order("follows.created_at DESC").
		Order("follows.id DESC").
		Limit(limit).
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	return users, nil
}
