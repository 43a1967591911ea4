package audio

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/intervoice/backend/internal/providers/tts"
	"github.com/intervoice/backend/internal/utils"
)

const deliveryPrefix = "Say this interview question in a professional, friendly tone: "

// Synthesizer turns question text into playable WAV artifacts.
type Synthesizer struct {
	provider     tts.Provider
	store        *FileStore
	logger       *logrus.Logger
	voice        string
	sampleRateHz int
	concurrency  int64
}

func NewSynthesizer(provider tts.Provider, store *FileStore, logger *logrus.Logger, voice string, sampleRateHz int) *Synthesizer {
	if voice == "" {
		voice = "Kore"
	}
	if sampleRateHz <= 0 {
		sampleRateHz = 24000
	}
	return &Synthesizer{
		provider:     provider,
		store:        store,
		logger:       logger,
		voice:        voice,
		sampleRateHz: sampleRateHz,
		concurrency:  3,
	}
}

// SynthesizeOne generates and persists audio for a single question index
// (1-based) and returns the stored filename.
func (s *Synthesizer) SynthesizeOne(ctx context.Context, sessionID string, index int, question string) (string, error) {
	const op = "Synthesizer.SynthesizeOne"

	pcm, err := s.provider.Synthesize(ctx, deliveryPrefix+question, s.voice)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "speech synthesis failed", err)
	}

	name, err := s.store.Save(sessionID, index, pcm, s.sampleRateHz)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to write audio file", err)
	}
	return name, nil
}

// SynthesizeBatch attempts every question independently with bounded
// concurrency and returns a map of 1-based index to filename. A failed
// question is logged and omitted; the batch itself never fails.
func (s *Synthesizer) SynthesizeBatch(ctx context.Context, sessionID string, questions []string, skip map[int]bool) map[int]string {
	sem := semaphore.NewWeighted(s.concurrency)

	var mu sync.Mutex
	out := make(map[int]string, len(questions))

	var wg sync.WaitGroup
	for i, q := range questions {
		index := i + 1
		if skip[index] {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context cancelled; already-written files stand
		}

		wg.Add(1)
		go func(index int, question string) {
			defer wg.Done()
			defer sem.Release(1)

			name, err := s.SynthesizeOne(ctx, sessionID, index, question)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"session_id":     sessionID,
					"question_index": index,
				}).Warn("audio synthesis failed, question will be text-only")
				return
			}

			mu.Lock()
			out[index] = name
			mu.Unlock()
		}(index, q)
	}

	wg.Wait()
	return out
}
