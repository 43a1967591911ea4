package events

import "context"

// Event is one progress update from an orchestration run, delivered to any
// client watching the session over the websocket feed.
type Event struct {
	Type          string `json:"type"` // questions_ready | audio_ready | audio_failed | run_complete
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index,omitempty"`
	Source        string `json:"source,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Publisher fans orchestration progress out to session watchers. Publishing
// is strictly best-effort: a dropped event never fails the run.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop is used when redis is not configured and in tests that don't watch
// progress.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
