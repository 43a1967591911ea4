package services

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/pdftext"
	pgrepo "github.com/intervoice/backend/internal/repositories/postgres"
	"github.com/intervoice/backend/internal/storage"
	"github.com/intervoice/backend/internal/utils"
)

type ResumeService interface {
	// CreateSession extracts text from an uploaded resume PDF, optionally
	// archives the original, and opens a new interview session in setup.
	CreateSession(ctx context.Context, userID string, pdfData []byte, jobTitle string, difficulty models.Difficulty) (*models.InterviewSession, error)
}

type resumeService struct {
	interviews pgrepo.InterviewRepository
	uploader   storage.Uploader // nil disables archival
	logger     *logrus.Logger
}

func NewResumeService(interviews pgrepo.InterviewRepository, uploader storage.Uploader, logger *logrus.Logger) ResumeService {
	return &resumeService{interviews: interviews, uploader: uploader, logger: logger}
}

func (s *resumeService) CreateSession(ctx context.Context, userID string, pdfData []byte, jobTitle string, difficulty models.Difficulty) (*models.InterviewSession, error) {
	const op = "ResumeService.CreateSession"

	if userID == "" || jobTitle == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and job_title are required", nil)
	}
	if !difficulty.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "difficulty must be easy, medium, or hard", nil)
	}
	if len(pdfData) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume file is empty", nil)
	}

	text, err := pdftext.Extract(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "could not read PDF", err)
	}
	if len(text) < pdftext.MinUsableChars {
		return nil, utils.E(utils.CodeInvalidArgument, op, "could not extract readable text from PDF, please try a different file", nil)
	}

	session := &models.InterviewSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		JobTitle:   jobTitle,
		Difficulty: difficulty,
		ResumeText: text,
		Status:     models.StatusSetup,
	}
	_ = session.SetAudioMap(nil) // audio_files is always present, default empty
	_ = session.SetAnswerList([]*models.Answer{})

	if s.uploader != nil {
		objectName := "resumes/" + userID + "/" + session.ID + ".pdf"
		stored, err := s.uploader.Upload(ctx, objectName, "application/pdf", bytes.NewReader(pdfData))
		if err != nil {
			// archival is best-effort; the extracted text is what matters
			s.logger.WithError(err).WithField("session_id", session.ID).Warn("resume archival failed")
		} else {
			session.ResumeObject = stored
		}
	}

	if err := s.interviews.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview session", err)
	}
	return session, nil
}
