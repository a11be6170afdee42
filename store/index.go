// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/danielhkuo/vote-for-me/session"
)

func entryFor(rec *session.Session) IndexEntry {
	entry := IndexEntry{
		ID:               rec.ID,
		Title:            rec.Title,
		Status:           rec.Status,
		CreatedAt:        rec.CreatedAt,
		ParticipantCount: len(rec.Participants),
		ItemCount:        len(rec.Items),
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		entry.CompletedAt = &t
	}
	return entry
}

func (s *FileStore) readIndex(path string) (indexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return indexFile{}, persistErr("index_read", err)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return indexFile{}, persistErr("index_read", err)
	}
	return idx, nil
}

func (s *FileStore) writeIndex(path string, idx indexFile) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return persistErr("index_write", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return persistErr("index_write", err)
	}
	return nil
}

// upsertIndexEntry adds or replaces rec's summary in the index for its
// status category.
func (s *FileStore) upsertIndexEntry(rec *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.indexPath(rec.Status)
	idx, err := s.readIndex(path)
	if err != nil {
		return err
	}

	entry := entryFor(rec)
	replaced := false
	for i, existing := range idx.Sessions {
		if existing.ID == rec.ID {
			idx.Sessions[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Sessions = append(idx.Sessions, entry)
	}
	idx.LastUpdated = time.Now().UTC()
	return s.writeIndex(path, idx)
}

func (s *FileStore) removeIndexEntry(path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex(path)
	if err != nil {
		return err
	}
	kept := idx.Sessions[:0]
	for _, entry := range idx.Sessions {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	idx.Sessions = kept
	idx.LastUpdated = time.Now().UTC()
	return s.writeIndex(path, idx)
}

// ListIndex returns the index entries for one status category, newest first,
// without loading full records. Entries whose backing record has vanished
// are skipped and pruned: the record is authoritative, the index self-heals.
func (s *FileStore) ListIndex(status string) ([]IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.indexPath(status)
	idx, err := s.readIndex(path)
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(idx.Sessions))
	stale := false
	for _, entry := range idx.Sessions {
		recPath := s.recordPath(entry.ID, entry.Status, entry.CreatedAt)
		if _, err := os.Stat(recPath); err != nil {
			slog.Warn("index entry has no backing record, pruning", "session_id", entry.ID)
			stale = true
			continue
		}
		entries = append(entries, entry)
	}

	if stale {
		idx.Sessions = entries
		idx.LastUpdated = time.Now().UTC()
		if err := s.writeIndex(path, idx); err != nil {
			slog.Warn("failed to self-heal index", "error", err)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// RebuildIndexes regenerates both index files from the authoritative records
// on disk. Run at startup it reconciles any crash between a record write and
// its index write, and finishes an interrupted relocation (a completed
// record found in the active partition is moved where it belongs).
func (s *FileStore) RebuildIndexes() error {
	var active, completed []IndexEntry

	for _, partition := range []string{activeDir, completedDir} {
		root := filepath.Join(s.dataDir, partition)
		dates, err := os.ReadDir(root)
		if err != nil {
			return persistErr("rebuild", err)
		}
		for _, date := range dates {
			if !date.IsDir() {
				continue
			}
			files, err := os.ReadDir(filepath.Join(root, date.Name()))
			if err != nil {
				return persistErr("rebuild", err)
			}
			for _, f := range files {
				if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
					continue
				}
				recPath := filepath.Join(root, date.Name(), f.Name())
				rec, err := readRecord(recPath)
				if err != nil {
					slog.Warn("skipping unreadable record during index rebuild", "path", recPath, "error", err)
					continue
				}

				// Finish an interrupted relocation: completed record still
				// sitting in the active partition. The completed-partition
				// scan that follows picks up the moved record.
				if partition == activeDir && rec.Status == session.StatusCompleted {
					if err := s.MoveToCompleted(rec); err != nil {
						slog.Warn("failed to finish interrupted relocation", "session_id", rec.ID, "error", err)
					}
					continue
				}

				if rec.Status == session.StatusCompleted {
					completed = append(completed, entryFor(rec))
				} else {
					active = append(active, entryFor(rec))
				}
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if err := s.writeIndex(s.indexPath(session.StatusActive), indexFile{Sessions: orEmpty(active), LastUpdated: now}); err != nil {
		return err
	}
	return s.writeIndex(s.indexPath(session.StatusCompleted), indexFile{Sessions: orEmpty(completed), LastUpdated: now})
}

func orEmpty(entries []IndexEntry) []IndexEntry {
	if entries == nil {
		return []IndexEntry{}
	}
	return entries
}
