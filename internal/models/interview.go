package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type SessionStatus string

const (
	StatusSetup      SessionStatus = "setup"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// GenerationSource records whether the committed question set came from the
// AI generator or the fixed fallback list.
type GenerationSource string

const (
	SourceAI       GenerationSource = "ai"
	SourceFallback GenerationSource = "fallback"
)

// Answer is one slot in the session's answer list. Unanswered slots are
// stored as explicit JSON nulls so indices always line up with questions.
type Answer struct {
	Text       string    `json:"text"`
	AnsweredAt time.Time `json:"answered_at"`
}

type InterviewSession struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`

	JobTitle   string     `gorm:"column:job_title;type:text;not null" json:"job_title"`
	Difficulty Difficulty `gorm:"column:difficulty;type:text;not null" json:"difficulty"`
	ResumeText string     `gorm:"column:resume_text;type:text;not null" json:"-"`

	// Object key of the archived resume PDF, empty when archival is disabled.
	ResumeObject string `gorm:"column:resume_object;type:text" json:"-"`

	Questions  datatypes.JSON   `gorm:"column:questions;type:jsonb" json:"questions"`
	Answers    datatypes.JSON   `gorm:"column:answers;type:jsonb" json:"answers"`
	AudioFiles datatypes.JSON   `gorm:"column:audio_files;type:jsonb" json:"audio_files"`
	Source     GenerationSource `gorm:"column:generation_source;type:text" json:"generation_source"`

	Status      SessionStatus `gorm:"column:status;type:text;not null;index" json:"status"`
	CreatedAt   time.Time     `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	CompletedAt *time.Time    `gorm:"column:completed_at;type:timestamptz" json:"completed_at,omitempty"`
}

func (InterviewSession) TableName() string { return "interview_sessions" }

func (s *InterviewSession) QuestionList() []string {
	if len(s.Questions) == 0 {
		return nil
	}
	var qs []string
	if err := json.Unmarshal(s.Questions, &qs); err != nil {
		return nil
	}
	return qs
}

func (s *InterviewSession) SetQuestionList(qs []string) error {
	b, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	s.Questions = datatypes.JSON(b)
	return nil
}

func (s *InterviewSession) QuestionCount() int { return len(s.QuestionList()) }

// AnswerList always reflects the stored slots, nils included.
func (s *InterviewSession) AnswerList() []*Answer {
	if len(s.Answers) == 0 {
		return nil
	}
	var as []*Answer
	if err := json.Unmarshal(s.Answers, &as); err != nil {
		return nil
	}
	return as
}

func (s *InterviewSession) SetAnswerList(as []*Answer) error {
	b, err := json.Marshal(as)
	if err != nil {
		return err
	}
	s.Answers = datatypes.JSON(b)
	return nil
}

func (s *InterviewSession) AnsweredCount() int {
	n := 0
	for _, a := range s.AnswerList() {
		if a != nil {
			n++
		}
	}
	return n
}

// AudioMap is keyed by 1-based question index.
func (s *InterviewSession) AudioMap() map[int]string {
	if len(s.AudioFiles) == 0 {
		return map[int]string{}
	}
	m := map[int]string{}
	if err := json.Unmarshal(s.AudioFiles, &m); err != nil {
		return map[int]string{}
	}
	return m
}

func (s *InterviewSession) SetAudioMap(m map[int]string) error {
	if m == nil {
		m = map[int]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.AudioFiles = datatypes.JSON(b)
	return nil
}
