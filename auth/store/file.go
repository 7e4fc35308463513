package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/viant/fitbit-mcp/auth"
)

// FileStore persists token records as a single JSON document mapping account
// key to record. It is a lightweight way to survive process restarts in CLI
// or single-host deployments.
type FileStore struct {
	mu   sync.Mutex
	path string
	// fellBack is set once the configured directory proved non-writable and
	// writes were redirected to the process temp directory.
	fellBack bool
}

// NewFileStore creates a Store that persists records at the given path.
// A missing file reads as an empty mapping.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Get(_ context.Context, key string) (*auth.Token, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens, err := f.load()
	if err != nil {
		return nil, false, err
	}
	token, ok := tokens[key]
	return token, ok, nil
}

func (f *FileStore) Set(_ context.Context, key string, token *auth.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens, err := f.load()
	if err != nil {
		return err
	}
	tokens[key] = token
	return f.save(tokens)
}

func (f *FileStore) Clear(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[key]; !ok {
		return nil
	}
	delete(tokens, key)
	return f.save(tokens)
}

func (f *FileStore) load() (map[string]*auth.Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		// A path component that is missing or not a directory means no
		// document exists yet; the write path handles the fallback.
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return map[string]*auth.Token{}, nil
		}
		return nil, err
	}
	tokens := map[string]*auth.Token{}
	if err = json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (f *FileStore) save(tokens map[string]*auth.Token) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	if err = f.write(data); err == nil {
		return nil
	}
	if f.fellBack {
		return err
	}
	// The configured directory is not writable; fall back once to a
	// temp-directory location derived from the same file name.
	f.path = filepath.Join(os.TempDir(), filepath.Base(f.path))
	f.fellBack = true
	return f.write(data)
}

func (f *FileStore) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
