package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps uploaded files under a directory that the router serves at publicPrefix.
type LocalStore struct {
	dir          string
	publicPrefix string
}

type StoredFile struct {
	StoredName string
	Path       string
	URL        string
}

func NewLocalStore(dir, publicPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir failed: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &LocalStore{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) PublicPrefix() string {
	return s.publicPrefix
}

// Save writes data under a generated name that keeps the original extension.
func (s *LocalStore) Save(originalName string, data []byte) (*StoredFile, error) {
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	fullPath := filepath.Join(s.dir, storedName)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload failed: %w", err)
	}
	return &StoredFile{
		StoredName: storedName,
		Path:       fullPath,
		URL:        path.Join(s.publicPrefix, storedName),
	}, nil
}
