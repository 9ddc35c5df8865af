package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/picgram/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	ListPopular(ctx context.Context, limit int) ([]models.UserSummary, error)
	ListRecommended(ctx context.Context, viewerID uint, limit int) ([]models.UserSummary, error)
	SearchUsers(ctx context.Context, query string, excludeID uint, limit int) ([]models.UserSummary, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser inserts a user. Used by seeding only.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID returns gorm.ErrRecordNotFound (wrapped) for unknown ids.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("get user by firebase uid: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return count > 0, nil
}

// ListPopular returns the most followed users, ties broken by id.
func (r *PostgresUserRepository) ListPopular(ctx context.Context, limit int) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(userSummaryColumns).
		Order("followers_count DESC").
		Order("users.id ASC").
		Limit(limit).
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list popular users: %w", err)
	}
	return users, nil
}

// ListRecommended returns users the viewer does not follow, excluding the
// viewer, ordered by followers, then posts, then newest account.
func (r *PostgresUserRepository) ListRecommended(ctx context.Context, viewerID uint, limit int) ([]models.UserSummary, error) {
	followed := r.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", viewerID)

	users := []models.UserSummary{}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(userSummaryColumns).
		Where("users.id <> ?", viewerID).
		Where("users.id NOT IN (?)", followed).
		Order("followers_count DESC").
		Order("posts_count DESC").
		Order("users.created_at DESC").
		Order("users.id ASC").
		Limit(limit).
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list recommended users: %w", err)
	}
	return users, nil
}

// SearchUsers matches name or email case-insensitively. excludeID 0 excludes nobody.
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, excludeID uint, limit int) ([]models.UserSummary, error) {
	pattern := containsPattern(query)

	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(userSummaryColumns).
		Where(`(LOWER(users.name) LIKE ? ESCAPE '\' OR LOWER(users.email) LIKE ? ESCAPE '\')`, pattern, pattern)
	if excludeID != 0 {
		tx = tx.Where("users.id <> ?", excludeID)
	}

	users := []models.UserSummary{}
	err := tx.Order("posts_count DESC").Order("users.id ASC").Limit(limit).Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
