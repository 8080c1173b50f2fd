// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package docstore implements the indexed document store (component C):
// an append-only, length-prefixed data file plus a SQLite-backed index
// from primary key to byte offset, with a direct-access read path.
package docstore

import (
	"bufio"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"

	sqlitecfg "github.com/ManuGH/xg2g/internal/persistence/sqlite"
)

var (
	// ErrDuplicate is returned by Write when key was already written in this session.
	ErrDuplicate = errors.New("docstore: duplicate key in this write session")
	// ErrNotFound is returned by DirectRead for a missing key.
	ErrNotFound = errors.New("docstore: key not found")
	// ErrCorrupt is returned mid-iteration when a record's length prefix
	// disagrees with the index or the record is truncated. Records carry
	// no checksum.
	ErrCorrupt = errors.New("docstore: corrupt record")
)

const formatVersion = 1

// Writer accumulates records for one target's data file and index. Open,
// Write zero or more records, then Commit. Writers that are abandoned
// without Commit (crash, panic) leave only staging files (renameio's
// temporary data file and idx_path + ".new"); the previously committed
// db_path/idx_path pair is never disturbed.
type Writer struct {
	dbPath, idxPath string

	dbStaging *renameio.PendingFile
	dbWriter  *bufio.Writer
	offset    int64

	idxStaging string
	idxDB      *sql.DB
	idxStmt    *sql.Stmt

	seen map[string]bool
}

// OpenWriter truncates/creates staging files for dbPath and idxPath and
// prepares the index, built in a SQLite file at idxPath + ".new".
func OpenWriter(dbPath, idxPath string) (*Writer, error) {
	dbStaging, err := renameio.NewPendingFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("docstore: stage db file: %w", err)
	}

	if _, err := dbStaging.Write(formatHeader()); err != nil {
		_ = dbStaging.Cleanup()
		return nil, fmt.Errorf("docstore: write db header: %w", err)
	}

	idxStagingPath := idxPath + ".new"
	_ = os.Remove(idxStagingPath)
	idxDB, err := sqlitecfg.Open(idxStagingPath, sqlitecfg.DefaultConfig())
	if err != nil {
		_ = dbStaging.Cleanup()
		return nil, fmt.Errorf("docstore: open staging index: %w", err)
	}
	if _, err := idxDB.Exec(`CREATE TABLE IF NOT EXISTS idx (key TEXT PRIMARY KEY, offset INTEGER NOT NULL, length INTEGER NOT NULL)`); err != nil {
		_ = idxDB.Close()
		_ = dbStaging.Cleanup()
		return nil, fmt.Errorf("docstore: create index table: %w", err)
	}
	stmt, err := idxDB.Prepare(`INSERT INTO idx (key, offset, length) VALUES (?, ?, ?)`)
	if err != nil {
		_ = idxDB.Close()
		_ = dbStaging.Cleanup()
		return nil, fmt.Errorf("docstore: prepare index insert: %w", err)
	}

	return &Writer{
		dbPath:     dbPath,
		idxPath:    idxPath,
		dbStaging:  dbStaging,
		dbWriter:   bufio.NewWriter(dbStaging),
		offset:     int64(len(formatHeader())),
		idxStaging: idxStagingPath,
		idxDB:      idxDB,
		idxStmt:    stmt,
		seen:       make(map[string]bool),
	}, nil
}

func formatHeader() []byte {
	h := make([]byte, 4)
	binary.BigEndian.PutUint32(h, formatVersion)
	return h
}

// Write appends record to the data file at its current offset and indexes
// key -> offset. Fails with ErrDuplicate if key was already written.
func (w *Writer) Write(key string, record []byte) error {
	if w.seen[key] {
		return ErrDuplicate
	}

	lenPrefix := make([]byte, 4)
	binary.BigEndian.PutUint32(lenPrefix, uint32(len(record)))

	recordOffset := w.offset
	if _, err := w.dbWriter.Write(lenPrefix); err != nil {
		return fmt.Errorf("docstore: write length prefix: %w", err)
	}
	if _, err := w.dbWriter.Write(record); err != nil {
		return fmt.Errorf("docstore: write record: %w", err)
	}
	w.offset += int64(len(lenPrefix) + len(record))

	if _, err := w.idxStmt.Exec(key, recordOffset, len(record)); err != nil {
		return fmt.Errorf("docstore: index insert: %w", err)
	}

	w.seen[key] = true
	return nil
}

// Commit flushes the data file, finalizes the index, fsyncs both, and
// atomically renames the staging files into place. After Commit the
// handle is closed.
func (w *Writer) Commit() error {
	if err := w.dbWriter.Flush(); err != nil {
		_ = w.abort()
		return fmt.Errorf("docstore: flush data file: %w", err)
	}
	if err := w.idxStmt.Close(); err != nil {
		_ = w.abort()
		return fmt.Errorf("docstore: close index statement: %w", err)
	}
	if err := w.idxDB.Close(); err != nil {
		_ = w.abort()
		return fmt.Errorf("docstore: close index: %w", err)
	}
	if err := w.dbStaging.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("docstore: commit data file: %w", err)
	}
	if err := os.Rename(w.idxStaging, w.idxPath); err != nil {
		return fmt.Errorf("docstore: commit index: %w", err)
	}
	return nil
}

func (w *Writer) abort() error {
	_ = w.idxStmt.Close()
	_ = w.idxDB.Close()
	_ = os.Remove(w.idxStaging)
	return w.dbStaging.Cleanup()
}

// Abort discards all staged writes without touching the previously
// committed pair.
func (w *Writer) Abort() error {
	return w.abort()
}

// Record is one entry yielded by Iter, in write order.
type Record struct {
	Key   string
	Value []byte
}

// Iter reads every record from dbPath/idxPath in the order they were
// written. A corrupted record ends iteration with ErrCorrupt; it does not
// affect any other target's store.
func Iter(dbPath, idxPath string, fn func(Record) error) error {
	idxDB, err := sqlitecfg.Open(idxPath, sqlitecfg.DefaultConfig())
	if err != nil {
		return fmt.Errorf("docstore: open index: %w", err)
	}
	defer func() { _ = idxDB.Close() }()

	rows, err := idxDB.Query(`SELECT key, offset, length FROM idx ORDER BY offset ASC`)
	if err != nil {
		return fmt.Errorf("docstore: query index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	f, err := os.Open(dbPath)
	if err != nil {
		return fmt.Errorf("docstore: open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for rows.Next() {
		var key string
		var offset, length int64
		if err := rows.Scan(&key, &offset, &length); err != nil {
			return fmt.Errorf("docstore: scan index row: %w", err)
		}

		buf := make([]byte, 4+length)
		if _, err := f.ReadAt(buf, offset); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrCorrupt
			}
			return fmt.Errorf("docstore: read record at offset %d: %w", offset, err)
		}
		if int64(binary.BigEndian.Uint32(buf[:4])) != length {
			return ErrCorrupt
		}

		if err := fn(Record{Key: key, Value: buf[4:]}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// DirectRead opens the index, looks up key, seeks into the data file, and
// returns one deserialized record's raw bytes.
func DirectRead(dbPath, idxPath, key string) ([]byte, error) {
	idxDB, err := sqlitecfg.Open(idxPath, sqlitecfg.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("docstore: open index: %w", err)
	}
	defer func() { _ = idxDB.Close() }()

	var offset, length int64
	err = idxDB.QueryRow(`SELECT offset, length FROM idx WHERE key = ?`, key).Scan(&offset, &length)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: lookup key %q: %w", key, err)
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("docstore: open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset+4); err != nil {
		return nil, fmt.Errorf("docstore: read record at offset %d: %w", offset, err)
	}
	return buf, nil
}
