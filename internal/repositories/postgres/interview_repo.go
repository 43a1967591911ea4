package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/utils"
)

type InterviewRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error)

	// CommitQuestions writes the question list, its source, and the status
	// transition in one UPDATE so a later audio failure can never lose the
	// committed questions.
	CommitQuestions(ctx context.Context, id string, questions datatypes.JSON, source models.GenerationSource, status models.SessionStatus) error

	SaveAudioFiles(ctx context.Context, id string, audio datatypes.JSON) error
	SaveAnswers(ctx context.Context, id string, answers datatypes.JSON) error
	Complete(ctx context.Context, id string, at time.Time) error

	// StaleSessions returns unfinished sessions created before the cutoff.
	StaleSessions(ctx context.Context, cutoff time.Time) ([]models.InterviewSession, error)
	Delete(ctx context.Context, id string) error
}

type interviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) InterviewRepository {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *interviewRepo) CommitQuestions(ctx context.Context, id string, questions datatypes.JSON, source models.GenerationSource, status models.SessionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"questions":         questions,
			"generation_source": source,
			"status":            status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *interviewRepo) SaveAudioFiles(ctx context.Context, id string, audio datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Update("audio_files", audio).Error
}

func (r *interviewRepo) SaveAnswers(ctx context.Context, id string, answers datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Update("answers", answers).Error
}

func (r *interviewRepo) Complete(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       models.StatusCompleted,
			"completed_at": at,
		}).Error
}

func (r *interviewRepo) StaleSessions(ctx context.Context, cutoff time.Time) ([]models.InterviewSession, error) {
	var rows []models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []models.SessionStatus{models.StatusSetup, models.StatusInProgress}, cutoff).
		Find(&rows).Error
	return rows, err
}

func (r *interviewRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.InterviewSession{}).Error
}
