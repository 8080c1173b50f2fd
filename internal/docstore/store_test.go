// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package docstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_CommitThenIterInWriteOrder(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "m3u.db")
	idxPath := filepath.Join(dir, "m3u.idx")

	w, err := OpenWriter(dbPath, idxPath)
	require.NoError(t, err)

	require.NoError(t, w.Write("k1", []byte("first")))
	require.NoError(t, w.Write("k2", []byte("second")))
	require.NoError(t, w.Write("k3", []byte("third")))
	require.NoError(t, w.Commit())

	var got []string
	err = Iter(dbPath, idxPath, func(r Record) error {
		got = append(got, string(r.Value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestWriter_DuplicateKeyRejected(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenWriter(filepath.Join(dir, "a.db"), filepath.Join(dir, "a.idx"))
	require.NoError(t, err)

	require.NoError(t, w.Write("k1", []byte("x")))
	err = w.Write("k1", []byte("y"))
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, w.Abort())
}

func TestDirectRead_FindsKey(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "a.db")
	idxPath := filepath.Join(dir, "a.idx")

	w, err := OpenWriter(dbPath, idxPath)
	require.NoError(t, err)
	require.NoError(t, w.Write("chan-1", []byte("payload-1")))
	require.NoError(t, w.Write("chan-2", []byte("payload-2")))
	require.NoError(t, w.Commit())

	v, err := DirectRead(dbPath, idxPath, "chan-2")
	require.NoError(t, err)
	assert.Equal(t, "payload-2", string(v))
}

func TestDirectRead_MissingKey(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "a.db")
	idxPath := filepath.Join(dir, "a.idx")

	w, err := OpenWriter(dbPath, idxPath)
	require.NoError(t, err)
	require.NoError(t, w.Write("k1", []byte("x")))
	require.NoError(t, w.Commit())

	_, err = DirectRead(dbPath, idxPath, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAbort_LeavesPreviouslyCommittedPairUntouched(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "a.db")
	idxPath := filepath.Join(dir, "a.idx")

	w1, err := OpenWriter(dbPath, idxPath)
	require.NoError(t, err)
	require.NoError(t, w1.Write("k1", []byte("v1")))
	require.NoError(t, w1.Commit())

	w2, err := OpenWriter(dbPath, idxPath)
	require.NoError(t, err)
	require.NoError(t, w2.Write("k1", []byte("v1-staged-but-never-committed")))
	require.NoError(t, w2.Abort())

	v, err := DirectRead(dbPath, idxPath, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(v))

	_, err = os.Stat(idxPath + ".new")
	assert.True(t, os.IsNotExist(err), "aborted staging file must not linger")
}
