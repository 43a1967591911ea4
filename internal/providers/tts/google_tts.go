package tts

import (
	"bytes"
	"context"
	"errors"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

type GoogleTTS struct {
	c *texttospeech.Client

	LanguageCode string
	SampleRateHz int32
}

func NewGoogleTTS(ctx context.Context, sampleRateHz int32) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if sampleRateHz <= 0 {
		sampleRateHz = 24000
	}
	return &GoogleTTS{
		c:            c,
		LanguageCode: "en-US",
		SampleRateHz: sampleRateHz,
	}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

func (g *GoogleTTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.LanguageCode,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: g.SampleRateHz,
		},
	})
	if err != nil {
		return nil, err
	}

	audio := resp.GetAudioContent()
	if len(audio) == 0 {
		return nil, errors.New("empty audio payload")
	}

	// LINEAR16 responses arrive with a RIFF header already attached; strip
	// it so callers get bare PCM and can write their own container.
	if len(audio) > 44 && bytes.HasPrefix(audio, []byte("RIFF")) {
		audio = audio[44:]
	}
	return audio, nil
}
