package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/intervoice/backend/internal/models"
	pgrepo "github.com/intervoice/backend/internal/repositories/postgres"
	"github.com/intervoice/backend/internal/utils"
)

func newResumeService(t *testing.T) ResumeService {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.InterviewSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	return NewResumeService(pgrepo.NewInterviewRepo(db), nil, l)
}

func TestCreateSessionValidation(t *testing.T) {
	svc := newResumeService(t)
	ctx := context.Background()
	userID := uuid.NewString()
	pdfStub := []byte("%PDF-1.4 not really a document")

	cases := []struct {
		name       string
		userID     string
		data       []byte
		jobTitle   string
		difficulty models.Difficulty
	}{
		{"missing user", "", pdfStub, "Backend Engineer", models.DifficultyMedium},
		{"missing job title", userID, pdfStub, "", models.DifficultyMedium},
		{"bad difficulty", userID, pdfStub, "Backend Engineer", "extreme"},
		{"empty file", userID, nil, "Backend Engineer", models.DifficultyMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSession(ctx, tc.userID, tc.data, tc.jobTitle, tc.difficulty)
			if !utils.IsCode(err, utils.CodeInvalidArgument) {
				t.Fatalf("got %v, want INVALID_ARGUMENT", err)
			}
		})
	}
}

func TestCreateSessionRejectsUnreadablePDF(t *testing.T) {
	svc := newResumeService(t)

	_, err := svc.CreateSession(context.Background(), uuid.NewString(), []byte("not a pdf at all"), "Backend Engineer", models.DifficultyMedium)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("got %v, want INVALID_ARGUMENT", err)
	}
}
