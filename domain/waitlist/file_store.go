package waitlist

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

// FileStore keeps the whole waitlist as one JSON array on disk.
type FileStore struct {
	fs     afero.Fs
	path   string
	logger *log.Logger
	now    func() time.Time

	// mu serialises access within this process only.
	mu sync.Mutex
}

func NewFileStore(fs afero.Fs, path string, logger *log.Logger) *FileStore {
	return &FileStore{
		fs:     fs,
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

func (s *FileStore) Name() StorageKind {
	return StorageFile
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) ensureDir() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.NewStorageUnavailableError("Could not create data directory", err)
	}
	return nil
}

// Read returns the stored entries in insertion order. A missing, blank,
// unreadable or unparseable file is an empty waitlist. Only a data directory
// that cannot be created is an error.
func (s *FileStore) Read(ctx context.Context) ([]FileEntry, error) {
	logger := log.FromContext(ctx, s.logger)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureDir(); err != nil {
		logger.Error("Failed to create data directory", "path", s.path, "error", err)
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileEntry{}, nil
		}
		logger.Error("Failed to read waitlist file; treating as empty", "path", s.path, "error", err)
		return []FileEntry{}, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []FileEntry{}, nil
	}

	var entries []FileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Error("Malformed waitlist file; treating as empty", "path", s.path, "error", err)
		return []FileEntry{}, nil
	}

	if entries == nil {
		entries = []FileEntry{}
	}
	return entries, nil
}

// Write replaces the file with entries as two-space indented JSON.
func (s *FileStore) Write(ctx context.Context, entries []FileEntry) error {
	logger := log.FromContext(ctx, s.logger)

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.ensureDir(); err != nil {
		logger.Error("Failed to create data directory", "path", s.path, "error", err)
		return err
	}

	if entries == nil {
		entries = []FileEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperrors.NewStorageUnavailableError("Could not save waitlist data", err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		logger.Error("Failed to write waitlist file", "path", s.path, "error", err)
		return apperrors.NewStorageUnavailableError("Could not save waitlist data", err)
	}

	logger.Debug("Waitlist file written", "path", s.path, "entries", len(entries))
	return nil
}

func (s *FileStore) Submit(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Read(ctx)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if entry.Email == email {
			return "", apperrors.NewDuplicateError(MessageDuplicateEmail, nil)
		}
	}

	now := s.now().UTC()
	id, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return "", apperrors.NewUnexpectedError("Could not generate entry id", err)
	}

	entries = append(entries, FileEntry{
		Email:     email,
		Timestamp: formatTimestamp(now),
		ID:        id.String(),
	})

	if err := s.Write(ctx, entries); err != nil {
		return "", err
	}

	return id.String(), nil
}

func (s *FileStore) List(ctx context.Context) (*ListWaitlistResponse, error) {
	// Locked so a concurrent Submit's truncate-and-write is never read half done.
	s.mu.Lock()
	entries, err := s.Read(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	listed := make([]ListedEntry, 0, len(entries))
	for _, entry := range entries {
		listed = append(listed, ToFileListedEntry(entry))
	}

	return newListResponse(StorageFile, listed), nil
}

// Healthy reports whether the data directory can be created.
func (s *FileStore) Healthy() bool {
	return s.ensureDir() == nil
}
