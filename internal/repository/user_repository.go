package repository

import (
	"context"
	"errors"
	"time"

	"pollbox/internal/domain/user"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Create(u)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return pollbox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, pollbox_errors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, pollbox_errors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) GetOrCreateGroup(ctx context.Context, name string) (user.Group, error) {
	var g user.Group
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user.Group{}, err
	}

	g = user.Group{ID: uuid.New(), Name: name}
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		// Lost a create race: someone else inserted the group first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if ferr := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error; ferr == nil {
				return g, nil
			}
		}
		return user.Group{}, err
	}
	return g, nil
}

func (r *PostgresUserRepository) AssignGroup(ctx context.Context, u *user.User, g user.Group) error {
	return r.db.WithContext(ctx).Model(u).Association("Groups").Append(&g)
}

func (r *PostgresUserRepository) CreateSession(ctx context.Context, s *user.UserSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *PostgresUserRepository) GetSessionByID(ctx context.Context, sessionID uuid.UUID) (user.UserSession, error) {
	var s user.UserSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.UserSession{}, pollbox_errors.ErrNotFound
		}
		return user.UserSession{}, err
	}
	return s, nil
}

func (r *PostgresUserRepository) UpdateSession(ctx context.Context, s user.UserSession) error {
	res := r.db.WithContext(ctx).Save(&s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pollbox_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&user.UserSession{}).
		Where("id = ?", sessionID).
		Update("is_revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pollbox_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&user.UserSession{}).
		Where("user_id = ? AND is_revoked = false AND expires_at > ?", userID, time.Now()).
		Update("is_revoked", true).Error
}
