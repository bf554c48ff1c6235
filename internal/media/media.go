// internal/media/media.go
package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store keeps raw voice and photo payloads on disk so extraction failures
// can be retried from the original media and confirmed entries can
// reference their source. Files for failed extractions are removed by the
// caller via Remove.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	for _, sub := range []string{"voice", "photos"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

// SaveVoice writes audio bytes under a fresh uuid name and returns the path.
func (s *Store) SaveVoice(userID int64, data []byte) (string, error) {
	return s.save("voice", userID, "ogg", data)
}

// SavePhoto writes image bytes under a fresh uuid name and returns the path.
func (s *Store) SavePhoto(userID int64, data []byte) (string, error) {
	return s.save("photos", userID, "jpg", data)
}

func (s *Store) save(sub string, userID int64, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%d_%s.%s", userID, uuid.NewString(), ext)
	path := filepath.Join(s.dir, sub, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return path, nil
}

// Remove deletes a previously saved file. Missing files are not an error;
// cleanup must be safe to call twice.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}
