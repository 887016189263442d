package repository

import (
	"context"
	"strings"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserFilter struct {
	Search string
	Role   string
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User, profile *entity.Profile) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error)
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
	Update(ctx context.Context, user *entity.User, profile *entity.Profile) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateRoles(ctx context.Context, ids []uuid.UUID, role string) (int64, error)
	FindAll(ctx context.Context, filter UserFilter) ([]*entity.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the user and its profile in one transaction.
func (r *userRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			user.Profile = profile
		}

		return nil
	})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username = ?", strings.ToLower(strings.TrimSpace(username)))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where(query, arg).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error) {
	return r.exists(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)), exceptID)
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	return r.exists(ctx, "username = ?", strings.ToLower(strings.TrimSpace(username)), exceptID)
}

func (r *userRepository) exists(ctx context.Context, query string, arg any, exceptID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&entity.User{}).Where(query, arg)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Save(user).Error; err != nil {
			return err
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Save(profile).Error; err != nil {
				return err
			}
			user.Profile = profile
		}

		return nil
	})
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// UpdateRoles sets role on the profiles of the given users and returns how many changed.
func (r *userRepository) UpdateRoles(ctx context.Context, ids []uuid.UUID, role string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Model(&entity.Profile{}).
		Where("user_id IN ?", ids).
		Updates(map[string]any{"role": role, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *userRepository) FindAll(ctx context.Context, filter UserFilter) ([]*entity.User, error) {
	q := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Preload("Profile")

	if filter.Role != "" || filter.Search != "" {
		q = q.Joins("LEFT JOIN profiles ON profiles.user_id = users.id")
	}

	if filter.Role != "" {
		q = q.Where("profiles.role = ?", filter.Role)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := database.ContainsPattern(search)
		q = q.Where(
			r.db.Where(database.ILike("users.username"), pattern).
				Or(database.ILike("users.email"), pattern).
				Or(database.ILike("profiles.role"), pattern),
		)
	}

	var users []*entity.User
	if err := q.Order("users.created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Delete removes the user; profile, jobs and applications cascade.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&entity.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
