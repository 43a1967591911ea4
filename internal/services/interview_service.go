package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervoice/backend/internal/audio"
	"github.com/intervoice/backend/internal/cache"
	"github.com/intervoice/backend/internal/events"
	"github.com/intervoice/backend/internal/lock"
	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/questiongen"
	pgrepo "github.com/intervoice/backend/internal/repositories/postgres"
	"github.com/intervoice/backend/internal/utils"
)

// TargetQuestionCount is the total number of questions a started session
// always carries: the fixed opener plus the generated ones.
const TargetQuestionCount = 5

// OpeningQuestion is never produced by the generator; it is composed in
// front of every generated or fallback set.
const OpeningQuestion = "Tell me about yourself and your professional background."

func fallbackQuestions(jobTitle string) []string {
	return []string{
		OpeningQuestion,
		fmt.Sprintf("What interests you most about this %s position?", jobTitle),
		"Describe a challenging project you've worked on and how you overcame obstacles.",
		"What are your greatest strengths and how do they apply to this role?",
		"Where do you see yourself in 5 years, and how does this position fit into your career goals?",
	}
}

const (
	orchestrationLockTTL = 5 * time.Minute
	sessionCacheTTL      = 30 * time.Second
)

type AudioFileInfo struct {
	QuestionIndex int    `json:"question_index"`
	QuestionText  string `json:"question_text"`
	Filename      string `json:"filename"`
}

type InterviewService interface {
	// Start runs the orchestration for a session: generate questions (or
	// fall back), commit them, then synthesize audio best-effort. Safe to
	// call repeatedly; a fully generated session costs no external calls.
	Start(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)

	// Regenerate discards questions and audio and reruns from scratch.
	Regenerate(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)

	Get(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)
	List(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error)
	Answer(ctx context.Context, userID, sessionID string, questionIndex int, text string) (*models.InterviewSession, error)
	Complete(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)

	ListAudio(ctx context.Context, userID, sessionID string) ([]AudioFileInfo, error)
	// AudioFilePath authorizes ownership before revealing a path on disk.
	AudioFilePath(ctx context.Context, userID, sessionID, filename string) (string, error)

	// PurgeAbandoned deletes unfinished sessions older than the given age
	// together with their audio files. Returns how many were removed.
	PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error)
}

type interviewService struct {
	interviews pgrepo.InterviewRepository
	generator  *questiongen.Generator
	synth      *audio.Synthesizer
	store      *audio.FileStore
	locker     lock.Locker
	cache      cache.Cache // nil disables read caching
	events     events.Publisher
	logger     *logrus.Logger
}

func NewInterviewService(
	interviews pgrepo.InterviewRepository,
	generator *questiongen.Generator,
	synth *audio.Synthesizer,
	store *audio.FileStore,
	locker lock.Locker,
	c cache.Cache,
	pub events.Publisher,
	logger *logrus.Logger,
) InterviewService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &interviewService{
		interviews: interviews,
		generator:  generator,
		synth:      synth,
		store:      store,
		locker:     locker,
		cache:      c,
		events:     pub,
		logger:     logger,
	}
}

func sessionCacheKey(id string) string { return "session:" + id }

func (s *interviewService) loadOwned(ctx context.Context, op, userID, sessionID string) (*models.InterviewSession, error) {
	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}

	sess, err := s.interviews.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview session", err)
	}
	if sess.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return sess, nil
}

func (s *interviewService) Start(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	return s.run(ctx, "InterviewService.Start", userID, sessionID, false)
}

func (s *interviewService) Regenerate(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	return s.run(ctx, "InterviewService.Regenerate", userID, sessionID, true)
}

// run is one orchestration pass. The session lock serializes concurrent
// starts for the same session so the check-then-generate sequence cannot
// double-spend or corrupt the question list.
func (s *interviewService) run(ctx context.Context, op, userID, sessionID string, force bool) (*models.InterviewSession, error) {
	sess, err := s.loadOwned(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusCompleted {
		return nil, utils.E(utils.CodeConflict, op, "interview is already completed", nil)
	}

	lockKey := "interview:" + sessionID + ":orchestrate"
	ok, err := s.locker.Acquire(ctx, lockKey, orchestrationLockTTL)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire session lock", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeConflict, op, "another run is in progress for this session", nil)
	}
	defer func() { _ = s.locker.Release(ctx, lockKey) }()

	questions := sess.QuestionList()
	source := sess.Source

	if force {
		s.store.RemoveSession(sessionID, len(questions))
		_ = sess.SetAudioMap(nil)
		questions = nil
	}

	if len(questions) != TargetQuestionCount {
		questions, source = s.generateQuestions(ctx, sess)

		if err := sess.SetQuestionList(questions); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to encode questions", err)
		}
		// Commit before any audio work so a synthesis failure can never
		// lose the question text.
		if err := s.interviews.CommitQuestions(ctx, sessionID, sess.Questions, source, models.StatusInProgress); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to commit questions", err)
		}
		sess.Source = source
		sess.Status = models.StatusInProgress

		s.events.Publish(ctx, events.Event{
			Type:      "questions_ready",
			SessionID: sessionID,
			Source:    string(source),
		})
	} else {
		s.logger.WithField("session_id", sessionID).Info("questions already generated, skipping generation")
		if sess.Status == models.StatusSetup {
			if err := s.interviews.CommitQuestions(ctx, sessionID, sess.Questions, sess.Source, models.StatusInProgress); err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to update session status", err)
			}
			sess.Status = models.StatusInProgress
		}
	}

	// Only synthesize indices that have no artifact yet; a refresh of a
	// fully synthesized session makes zero speech API calls.
	existing := map[int]string{}
	skip := map[int]bool{}
	if !force {
		for idx, name := range sess.AudioMap() {
			if s.store.Exists(name) {
				existing[idx] = name
				skip[idx] = true
			}
		}
	}

	generated := s.synth.SynthesizeBatch(ctx, sessionID, questions, skip)
	for idx, name := range generated {
		existing[idx] = name
		s.events.Publish(ctx, events.Event{
			Type:          "audio_ready",
			SessionID:     sessionID,
			QuestionIndex: idx,
		})
	}
	for idx := 1; idx <= len(questions); idx++ {
		if _, ok := existing[idx]; !ok {
			s.events.Publish(ctx, events.Event{
				Type:          "audio_failed",
				SessionID:     sessionID,
				QuestionIndex: idx,
				Message:       "audio unavailable, question is text-only",
			})
		}
	}

	if err := sess.SetAudioMap(existing); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode audio map", err)
	}
	if err := s.interviews.SaveAudioFiles(ctx, sessionID, sess.AudioFiles); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist audio map", err)
	}

	s.invalidate(ctx, sessionID)
	s.events.Publish(ctx, events.Event{Type: "run_complete", SessionID: sessionID})

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"questions":  len(questions),
		"audio":      len(existing),
		"source":     sess.Source,
	}).Info("orchestration run finished")

	return sess, nil
}

// generateQuestions asks the AI for target-1 questions and composes the
// opener in front. Any generation error yields the fixed fallback set; the
// session must never be left without questions.
func (s *interviewService) generateQuestions(ctx context.Context, sess *models.InterviewSession) ([]string, models.GenerationSource) {
	generated, err := s.generator.Generate(ctx, sess.ResumeText, sess.JobTitle, sess.Difficulty, TargetQuestionCount-1)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sess.ID).
			Warn("question generation failed, using fallback questions")
		return fallbackQuestions(sess.JobTitle), models.SourceFallback
	}
	return append([]string{OpeningQuestion}, generated...), models.SourceAI
}

func (s *interviewService) Get(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	const op = "InterviewService.Get"

	if s.cache != nil {
		var cached models.InterviewSession
		if hit, _ := s.cache.GetJSON(ctx, sessionCacheKey(sessionID), &cached); hit {
			if cached.UserID != userID {
				return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
			}
			return &cached, nil
		}
	}

	sess, err := s.loadOwned(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, sessionCacheKey(sessionID), sess, sessionCacheTTL)
	}
	return sess, nil
}

func (s *interviewService) List(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error) {
	const op = "InterviewService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.interviews.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interview sessions", err)
	}
	return rows, nil
}

func (s *interviewService) Answer(ctx context.Context, userID, sessionID string, questionIndex int, text string) (*models.InterviewSession, error) {
	const op = "InterviewService.Answer"

	if strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "answer text is required", nil)
	}

	sess, err := s.loadOwned(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusInProgress {
		return nil, utils.E(utils.CodeConflict, op, "interview is not in progress", nil)
	}

	count := sess.QuestionCount()
	if questionIndex < 1 || questionIndex > count {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("question_index must be between 1 and %d", count), nil)
	}

	answers := sess.AnswerList()
	// pad with explicit empty slots so indices stay aligned with questions
	for len(answers) < questionIndex {
		answers = append(answers, nil)
	}
	answers[questionIndex-1] = &models.Answer{
		Text:       text,
		AnsweredAt: time.Now().UTC(),
	}

	if err := sess.SetAnswerList(answers); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode answers", err)
	}
	if err := s.interviews.SaveAnswers(ctx, sessionID, sess.Answers); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist answer", err)
	}

	s.invalidate(ctx, sessionID)
	return sess, nil
}

func (s *interviewService) Complete(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	const op = "InterviewService.Complete"

	sess, err := s.loadOwned(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusCompleted {
		return sess, nil
	}
	if sess.Status != models.StatusInProgress {
		return nil, utils.E(utils.CodeConflict, op, "interview has not been started", nil)
	}

	now := time.Now().UTC()
	if err := s.interviews.Complete(ctx, sessionID, now); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to complete session", err)
	}
	sess.Status = models.StatusCompleted
	sess.CompletedAt = &now

	s.invalidate(ctx, sessionID)
	return sess, nil
}

func (s *interviewService) ListAudio(ctx context.Context, userID, sessionID string) ([]AudioFileInfo, error) {
	const op = "InterviewService.ListAudio"

	sess, err := s.loadOwned(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}

	questions := sess.QuestionList()
	audioMap := sess.AudioMap()

	out := make([]AudioFileInfo, 0, len(audioMap))
	for i := 1; i <= len(questions); i++ {
		name, ok := audioMap[i]
		if !ok || !s.store.Exists(name) {
			continue
		}
		out = append(out, AudioFileInfo{
			QuestionIndex: i,
			QuestionText:  questions[i-1],
			Filename:      name,
		})
	}
	return out, nil
}

func (s *interviewService) AudioFilePath(ctx context.Context, userID, sessionID, filename string) (string, error) {
	const op = "InterviewService.AudioFilePath"

	if _, err := s.loadOwned(ctx, op, userID, sessionID); err != nil {
		return "", err
	}

	// The filename must match this session's own convention; anything else
	// could address another session's artifacts.
	if !strings.HasPrefix(filename, "session_"+sessionID+"_question_") || !strings.HasSuffix(filename, ".wav") || strings.ContainsAny(filename, "/\\") {
		return "", utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	if !s.store.Exists(filename) {
		return "", utils.E(utils.CodeNotFound, op, "audio file not found", nil)
	}
	return s.store.Path(filename), nil
}

func (s *interviewService) PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	const op = "InterviewService.PurgeAbandoned"

	if olderThan <= 0 {
		return 0, utils.E(utils.CodeInvalidArgument, op, "retention age must be positive", nil)
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.interviews.StaleSessions(ctx, cutoff)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to list stale sessions", err)
	}

	purged := 0
	for i := range stale {
		sess := &stale[i]
		count := sess.QuestionCount()
		if count == 0 {
			count = TargetQuestionCount
		}
		s.store.RemoveSession(sess.ID, count)

		if err := s.interviews.Delete(ctx, sess.ID); err != nil {
			s.logger.WithError(err).WithField("session_id", sess.ID).Error("failed to delete stale session")
			continue
		}
		s.invalidate(ctx, sess.ID)
		purged++
	}

	s.logger.WithFields(logrus.Fields{"purged": purged, "cutoff": cutoff}).Info("purged abandoned sessions")
	return purged, nil
}

func (s *interviewService) invalidate(ctx context.Context, sessionID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, sessionCacheKey(sessionID))
	}
}
