// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists session records as date- and status-partitioned JSON
files with atomic replacement semantics.

# Layout

	data/
	  active/<YYYY-MM-DD>/<id>.json     draft and active records
	  active/<YYYY-MM-DD>/<id>.key      per-session link key (0600)
	  completed/<YYYY-MM-DD>/<id>.json  completed records
	  completed/<YYYY-MM-DD>/<id>.key
	  active_sessions_index.json        lightweight listing indexes
	  completed_sessions_index.json

Date partitioning bounds directory sizes; the key lives alongside but never
inside the record. Every write lands in a temp file first and is renamed into
place, so no reader ever observes a half-written record.

# Record/index ordering and recovery

There is no multi-file transaction primitive, so the store commits the record
first and the index second. The record is authoritative: ListIndex prunes
entries whose backing record is gone, and RebuildIndexes (run at startup)
regenerates both indexes from the records and finishes any relocation that
was interrupted between the rename and the index swap — a completed record
found in the active partition is simply moved again, which is idempotent.
*/
package store
