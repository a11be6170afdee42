// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/danielhkuo/vote-for-me/session"
)

// Partition directory names. Draft and active records share the active
// partition; completed records live in their own.
const (
	activeDir    = "active"
	completedDir = "completed"

	activeIndexFile    = "active_sessions_index.json"
	completedIndexFile = "completed_sessions_index.json"
)

// ErrNotFound is returned when no durable record exists for a session id.
var ErrNotFound = errors.New("session record not found")

// ErrPersistence matches any *PersistenceError via errors.Is.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError wraps a failed store operation. Callers see the operation
// as failed with no partial effect; the manager rolls its cache back to the
// last durable value.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IndexEntry is a denormalized summary of one session, kept in the active or
// completed index so listings never have to load every record.
type IndexEntry struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ParticipantCount int        `json:"participant_count"`
	ItemCount        int        `json:"item_count"`
}

type indexFile struct {
	Sessions    []IndexEntry `json:"sessions"`
	LastUpdated time.Time    `json:"last_updated"`
}

// FileStore persists each session as one self-describing JSON record plus a
// separate key file, partitioned by creation date and by status:
//
//	<dataDir>/active/<YYYY-MM-DD>/<id>.json
//	<dataDir>/active/<YYYY-MM-DD>/<id>.key
//	<dataDir>/completed/<YYYY-MM-DD>/<id>.json
//	<dataDir>/completed/<YYYY-MM-DD>/<id>.key
//	<dataDir>/active_sessions_index.json
//	<dataDir>/completed_sessions_index.json
//
// Every write goes to a temp file in the destination directory followed by
// an atomic rename, so a reader can never observe a half-written record.
// The record is always written before its index entry; on divergence the
// record is authoritative and the index self-heals.
type FileStore struct {
	dataDir string

	// mu serializes index read-modify-write cycles and relocations. Record
	// writes themselves are already atomic and serialized per session by the
	// manager.
	mu sync.Mutex
}

// NewFileStore creates the partition directories and empty indexes if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	s := &FileStore{dataDir: dataDir}
	for _, dir := range []string{dataDir, filepath.Join(dataDir, activeDir), filepath.Join(dataDir, completedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, persistErr("init", err)
		}
	}
	for _, name := range []string{activeIndexFile, completedIndexFile} {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := s.writeIndex(path, indexFile{Sessions: []IndexEntry{}, LastUpdated: time.Now().UTC()}); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, persistErr("init", err)
		}
	}
	return s, nil
}

// recordPath computes where a record with this status and creation date lives.
func (s *FileStore) recordPath(id, status string, createdAt time.Time) string {
	partition := activeDir
	if status == session.StatusCompleted {
		partition = completedDir
	}
	date := createdAt.UTC().Format("2006-01-02")
	return filepath.Join(s.dataDir, partition, date, id+".json")
}

func keyPath(recordPath string) string {
	return recordPath[:len(recordPath)-len(".json")] + ".key"
}

func (s *FileStore) indexPath(status string) string {
	if status == session.StatusCompleted {
		return filepath.Join(s.dataDir, completedIndexFile)
	}
	return filepath.Join(s.dataDir, activeIndexFile)
}

// writeFileAtomic writes to a temp file in the target directory then renames
// it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Save writes the record atomically, then updates the matching index entry.
func (s *FileStore) Save(rec *session.Session) error {
	path := s.recordPath(rec.ID, rec.Status, rec.CreatedAt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return persistErr("save", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return persistErr("save", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return persistErr("save", err)
	}

	return s.upsertIndexEntry(rec)
}

// SaveKey writes the session's link key next to its record. The key is never
// embedded inside the record's serialized form.
func (s *FileStore) SaveKey(rec *session.Session, key []byte) error {
	path := keyPath(s.recordPath(rec.ID, rec.Status, rec.CreatedAt))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return persistErr("save_key", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := writeFileAtomic(path, []byte(encoded), 0o600); err != nil {
		return persistErr("save_key", err)
	}
	return nil
}

// findRecordPath searches the active then completed partitions for the
// record file of id.
func (s *FileStore) findRecordPath(id string) (string, error) {
	for _, partition := range []string{activeDir, completedDir} {
		root := filepath.Join(s.dataDir, partition)
		dates, err := os.ReadDir(root)
		if err != nil {
			return "", persistErr("lookup", err)
		}
		for _, date := range dates {
			if !date.IsDir() {
				continue
			}
			path := filepath.Join(root, date.Name(), id+".json")
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", ErrNotFound
}

// LoadRecord reads one session record from disk.
func (s *FileStore) LoadRecord(id string) (*session.Session, error) {
	path, err := s.findRecordPath(id)
	if err != nil {
		return nil, err
	}
	return readRecord(path)
}

func readRecord(path string) (*session.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, persistErr("load", err)
	}
	var rec session.Session
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, persistErr("load", err)
	}
	return &rec, nil
}

// LoadKey reads the session's link key.
func (s *FileStore) LoadKey(id string) ([]byte, error) {
	path, err := s.findRecordPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(keyPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, persistErr("load_key", err)
	}
	key, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, persistErr("load_key", err)
	}
	return key, nil
}

// MoveToCompleted relocates a just-completed record (and its key) from the
// active partition into the completed partition and swaps the index entries,
// as one logical operation with the status update already applied to rec.
//
// Idempotent retry: if the record is already in the completed partition with
// status=completed, relocation is treated as done and only the record body
// and indexes are refreshed.
func (s *FileStore) MoveToCompleted(rec *session.Session) error {
	if rec.Status != session.StatusCompleted {
		return persistErr("relocate", fmt.Errorf("record %s is %s, not completed", rec.ID, rec.Status))
	}

	oldPath := s.recordPath(rec.ID, session.StatusActive, rec.CreatedAt)
	newPath := s.recordPath(rec.ID, session.StatusCompleted, rec.CreatedAt)

	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		s.mu.Unlock()
		return persistErr("relocate", err)
	}
	if _, err := os.Stat(oldPath); err == nil {
		if err := os.Rename(oldPath, newPath); err != nil {
			s.mu.Unlock()
			return persistErr("relocate", err)
		}
		if _, err := os.Stat(keyPath(oldPath)); err == nil {
			if err := os.Rename(keyPath(oldPath), keyPath(newPath)); err != nil {
				s.mu.Unlock()
				return persistErr("relocate", err)
			}
		}
	} else if _, statErr := os.Stat(newPath); statErr != nil {
		s.mu.Unlock()
		return persistErr("relocate", fmt.Errorf("record %s missing from both partitions", rec.ID))
	}
	s.mu.Unlock()

	// Rewrite the relocated record with its completed status and timestamp.
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return persistErr("relocate", err)
	}
	if err := writeFileAtomic(newPath, data, 0o644); err != nil {
		return persistErr("relocate", err)
	}

	if err := s.removeIndexEntry(s.indexPath(session.StatusActive), rec.ID); err != nil {
		return err
	}
	return s.upsertIndexEntry(rec)
}

// Delete removes the record, its key and its index entry together.
func (s *FileStore) Delete(id string) error {
	path, err := s.findRecordPath(id)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return persistErr("delete", err)
	}
	if err := os.Remove(keyPath(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return persistErr("delete", err)
	}
	return s.removeIndexEntry(s.indexPath(rec.Status), id)
}
