package audio

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps question audio as flat WAV files under a single directory.
// Files are unmanaged artifacts: the only index is the filename convention
// session_<id>_question_<n>.wav.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func Filename(sessionID string, index int) string {
	return fmt.Sprintf("session_%s_question_%d.wav", sessionID, index)
}

func (s *FileStore) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

func (s *FileStore) Exists(filename string) bool {
	info, err := os.Stat(s.Path(filename))
	return err == nil && !info.IsDir()
}

// Save writes PCM as a WAV file and returns the filename.
func (s *FileStore) Save(sessionID string, index int, pcm []byte, sampleRateHz int) (string, error) {
	name := Filename(sessionID, index)

	f, err := os.Create(s.Path(name))
	if err != nil {
		return "", err
	}
	if err := WriteWAV(f, pcm, 1, sampleRateHz, 16); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// RemoveSession deletes every audio file for a session by the filename
// convention, up to the given question count.
func (s *FileStore) RemoveSession(sessionID string, questionCount int) {
	for i := 1; i <= questionCount; i++ {
		_ = os.Remove(s.Path(Filename(sessionID, i)))
	}
}
