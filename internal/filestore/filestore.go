package filestore

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// Store relocates fetched Telegram files to durable storage and returns a
// public URL. Backend selection is out of scope here: the ingestion pipeline
// only ever sees this interface.
type Store interface {
	Save(name string, r io.Reader) (string, error)
}

// LocalStore writes files to a local directory served under a public base
// URL (e.g. by a reverse proxy in front of the dashboard).
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: publicBaseURL}, nil
}

func (s *LocalStore) Save(name string, r io.Reader) (string, error) {
	// Names are generated by the caller; Base guards against traversal.
	name = filepath.Base(name)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", name, err)
	}

	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return "", fmt.Errorf("failed to build public URL for %s: %w", name, err)
	}
	return u, nil
}
