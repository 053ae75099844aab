package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// document is the persisted shape. Keys match the ones the browser
// extension keeps in local storage.
type document struct {
	UserLoggedIn bool     `json:"userLoggedIn"`
	UserInfo     *Profile `json:"userInfo"`
	IDToken      *string  `json:"idToken"`
}

// FileStore keeps the session in a single JSON document. Writes go to a
// temporary file that is renamed over the original.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store. The file is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials file path is required")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the session. A missing file is the logged-out session.
func (s *FileStore) Load(_ context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoggedOut(), nil
		}
		return Session{}, fmt.Errorf("reading credentials file %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Session{}, fmt.Errorf("parsing credentials file %s: %w", s.path, err)
	}

	session := Session{
		LoggedIn:      doc.UserLoggedIn,
		IdentityToken: doc.IDToken,
		Profile:       doc.UserInfo,
	}
	if err := session.Validate(); err != nil {
		return Session{}, fmt.Errorf("credentials file %s: %w", s.path, err)
	}
	return session, nil
}

// Replace writes the whole session in one rename.
func (s *FileStore) Replace(_ context.Context, session Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(document{
		UserLoggedIn: session.LoggedIn,
		UserInfo:     session.Profile,
		IDToken:      session.IdentityToken,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating credentials directory %s: %w", directory, err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing credentials file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming credentials file: %w", err)
	}
	return nil
}
