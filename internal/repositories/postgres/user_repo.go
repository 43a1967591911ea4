package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/utils"
)

type UserRepository interface {
	GetBySubject(ctx context.Context, subjectID string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}

// Upsert keys on the provider subject so repeated logins refresh profile
// attributes instead of inserting duplicates.
func (r *userRepo) Upsert(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "picture", "last_login_at"}),
		}).
		Create(u).Error
}
