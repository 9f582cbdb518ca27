package sessionstore

import (
	"context"
	"ctfd-cli/lib/scrapers/ctfd/core"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound means no session has been saved yet.
	ErrNotFound    = errors.New("no saved session")
	ErrReadFailed  = errors.New("failed to read saved session")
	ErrWriteFailed = errors.New("failed to save session")
)

const (
	appDirectory = "ctfd-cli"
	fileName     = "session.json"
)

// Record is the on-disk form of a session.
type Record struct {
	BaseAddress string            `json:"baseAddress"`
	Cookies     map[string]string `json:"cookies"`
}

// DefaultPath returns the per user location sessions are saved to.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirectory, fileName), nil
}

// Store reads and writes a single session file. Concurrent writers are not
// coordinated, whichever writes last wins.
type Store struct {
	path string
}

func NewStore(path string) Store {
	return Store{path: path}
}

func (s Store) Path() string {
	return s.path
}

func (s Store) Write(record Record) error {
	if record.Cookies == nil {
		record.Cookies = map[string]string{}
	}

	dir := filepath.Dir(s.path)
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWriteFailed, dir, err)
	}

	serialized, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(dir, fileName+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(serialized)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrWriteFailed, tmp.Name(), err)
	}
	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	slog.Debug("saved session", "path", s.path, "base_address", record.BaseAddress, "cookies", len(record.Cookies))
	return nil
}

func (s Store) Read() (Record, error) {
	contents, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, fmt.Errorf("%w at %s", ErrNotFound, s.path)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	var record Record
	err = json.Unmarshal(contents, &record)
	if err != nil {
		return Record{}, fmt.Errorf("%w: decode %s: %w", ErrReadFailed, s.path, err)
	}
	if record.BaseAddress == "" {
		return Record{}, fmt.Errorf("%w: %s has no base address", ErrReadFailed, s.path)
	}
	return record, nil
}

// Save persists the base address and cookies of client.
func (s Store) Save(client *core.Client) error {
	return s.Write(Record{
		BaseAddress: client.BaseUrl.String(),
		Cookies:     client.Cookies(),
	})
}

// Load restores the saved session as a client. opts supplies everything
// except the base address and cookies, which come from the file.
func (s Store) Load(ctx context.Context, opts core.ClientOptions) (*core.Client, error) {
	record, err := s.Read()
	if err != nil {
		return nil, err
	}
	opts.BaseUrl = record.BaseAddress
	opts.Cookies = record.Cookies

	client, err := core.NewClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return client, nil
}
