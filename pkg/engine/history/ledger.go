// Package history keeps a ledger of past runs and derives trends from it.
package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/datasift/pkg/engine/report"
	"github.com/DrSkyle/datasift/pkg/storage"
)

// Snapshot is the ledger entry for one run.
type Snapshot struct {
	RunID             string         `json:"run_id"`
	Timestamp         int64          `json:"timestamp"`
	TotalRecords      int            `json:"total_records"`
	UniqueRecords     int            `json:"unique_records"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	PIIRecords        int            `json:"pii_records"`
	PIITypes          map[string]int `json:"pii_types"`
	FailedSources     int            `json:"failed_sources"`
}

// FromSummary condenses a run summary into a snapshot.
func FromSummary(s report.Summary) Snapshot {
	snap := Snapshot{
		RunID:             s.RunID,
		Timestamp:         s.Timestamp.Unix(),
		TotalRecords:      s.TotalRecords,
		UniqueRecords:     s.UniqueRecords,
		DuplicatesRemoved: s.DuplicatesRemoved,
		PIIRecords:        s.PIIDetected,
		PIITypes:          make(map[string]int, len(s.PIITypes)),
	}
	for c, n := range s.PIITypes {
		snap.PIITypes[string(c)] = n
	}
	for _, src := range s.Sources {
		if src.Error != "" {
			snap.FailedSources++
		}
	}
	return snap
}

// Backend defines the storage interface for snapshots.
type Backend interface {
	Append(ctx context.Context, s Snapshot) error
	Load(ctx context.Context, n int) ([]Snapshot, error)
}

// Client manages historical state.
type Client struct {
	backend Backend
}

// NewClient initializes a history client.
// Defaults to FileBackend.
func NewClient(backend Backend) *Client {
	if backend == nil {
		backend = &FileBackend{}
	}
	return &Client{backend: backend}
}

// Append records a new snapshot.
func (c *Client) Append(ctx context.Context, s Snapshot) error {
	return c.backend.Append(ctx, s)
}

// LoadWindow returns the last n snapshots, oldest first.
func (c *Client) LoadWindow(ctx context.Context, n int) ([]Snapshot, error) {
	return c.backend.Load(ctx, n)
}

// NewBackend picks a backend for target: "" for the default local ledger, a
// file path, or s3://bucket/key.
func NewBackend(ctx context.Context, target string, opts storage.S3Options) (Backend, error) {
	if !strings.HasPrefix(target, "s3://") {
		return NewLocalBackend(target), nil
	}
	bucket, key, err := storage.ParseS3URL(target)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = "datasift/history.jsonl"
	}
	store, err := storage.NewS3StoreFromOptions(ctx, bucket, "", opts)
	if err != nil {
		return nil, err
	}
	return &BlobBackend{Store: store, Key: key}, nil
}

// NewLocalBackend creates a file-based backend at the specified path.
func NewLocalBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// FileBackend appends JSON lines to a local file.
type FileBackend struct {
	Path string
}

func (b *FileBackend) path() (string, error) {
	if b.Path != "" {
		return b.Path, nil
	}
	return GetLedgerPath()
}

func (b *FileBackend) Append(ctx context.Context, s Snapshot) error {
	path, err := b.path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

func (b *FileBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	path, err := b.path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return lastN(parseLedger(data), n), nil
}

// BlobBackend keeps the ledger as a single object in a BlobStore. Appends
// are read-modify-write, so concurrent writers can lose entries.
type BlobBackend struct {
	Store storage.BlobStore
	Key   string
}

func (b *BlobBackend) Append(ctx context.Context, s Snapshot) error {
	existing, err := b.Store.Get(ctx, b.Key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read ledger: %w", err)
	}

	line, err := json.Marshal(s)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if buf.Len() > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')

	return b.Store.Put(ctx, b.Key, buf.Bytes())
}

func (b *BlobBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	data, err := b.Store.Get(ctx, b.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return lastN(parseLedger(data), n), nil
}

// parseLedger skips lines that do not decode.
func parseLedger(data []byte) []Snapshot {
	history := []Snapshot{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			slog.Debug("Skipping corrupt ledger line", "error", err)
			continue
		}
		history = append(history, s)
	}
	return history
}

func lastN(history []Snapshot, n int) []Snapshot {
	if n > 0 && len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// GetLedgerPath provides the default local storage path.
func GetLedgerPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".datasift", "ledger.jsonl"), nil
}
