// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package vidmap implements the virtual-ID mapping (component D): a
// stable mapping from content hash to a locally-assigned virtual ID,
// backed by one Badger instance per target.
package vidmap

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/xg2g/internal/types"
)

// Mapping operates over one Badger instance per target. The mapping
// object must persist on drop; this implementation chooses explicit
// Close() error (flush then close the Badger handle) over a
// finalizer-based drop-hook, since Go has no deterministic destructors.
// Callers are required to defer mapping.Close().
type Mapping struct {
	db *badger.DB

	mu          sync.Mutex
	maxAssigned uint32
	dirty       atomic.Bool
}

// Open opens (creating if absent) the Badger directory at dir and
// initializes the in-memory max_assigned counter from its contents.
func Open(dir string) (*Mapping, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("vidmap: open %s: %w", dir, err)
	}

	m := &Mapping{db: db}
	if err := m.loadMaxAssigned(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mapping) loadMaxAssigned() error {
	return m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec types.VirtualIdRecord
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			})
			if err != nil {
				return fmt.Errorf("vidmap: decode record during load: %w", err)
			}
			if rec.VirtualID > m.maxAssigned {
				m.maxAssigned = rec.VirtualID
			}
		}
		return nil
	})
}

func contentKey(contentUUID [16]byte) []byte {
	return contentUUID[:]
}

func virtualIDKey(virtualID uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, virtualID)
	return append([]byte("vid:"), b...)
}

// GetOrAssign returns the stable virtual ID for contentUUID, allocating a
// new one on first sighting. A later ingestion that finds the same
// content_uuid has its item_type, parent_virtual_id, and provider_id
// overwritten in place; virtual_id never changes once assigned.
func (m *Mapping) GetOrAssign(contentUUID [16]byte, providerID string, itemType types.ItemType, parentVirtualID uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing *types.VirtualIdRecord
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(contentUUID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var rec types.VirtualIdRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			existing = &rec
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("vidmap: lookup content uuid: %w", err)
	}

	if existing != nil {
		if existing.ItemType != itemType || existing.ParentVirtualID != parentVirtualID || existing.ProviderID != providerID {
			existing.ItemType = itemType
			existing.ParentVirtualID = parentVirtualID
			existing.ProviderID = providerID
			existing.LastUpdated = time.Now()
			if err := m.put(contentUUID, *existing); err != nil {
				return 0, err
			}
		}
		return existing.VirtualID, nil
	}

	m.maxAssigned++
	rec := types.VirtualIdRecord{
		VirtualID:       m.maxAssigned,
		ProviderID:      providerID,
		ContentUUID:     contentUUID,
		ItemType:        itemType,
		ParentVirtualID: parentVirtualID,
		LastUpdated:     time.Now(),
	}
	if err := m.put(contentUUID, rec); err != nil {
		return 0, err
	}
	return rec.VirtualID, nil
}

func (m *Mapping) put(contentUUID [16]byte, rec types.VirtualIdRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("vidmap: marshal record: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(contentKey(contentUUID), payload); err != nil {
			return err
		}
		return txn.Set(virtualIDKey(rec.VirtualID), payload)
	})
	if err != nil {
		return fmt.Errorf("vidmap: persist record: %w", err)
	}
	m.dirty.Store(true)
	return nil
}

// Lookup returns the record for virtualID, if assigned.
func (m *Mapping) Lookup(virtualID uint32) (types.VirtualIdRecord, bool, error) {
	var rec types.VirtualIdRecord
	found := false
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(virtualIDKey(virtualID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if err != nil {
		return types.VirtualIdRecord{}, false, fmt.Errorf("vidmap: lookup virtual id: %w", err)
	}
	return rec, found, nil
}

// Persist flushes pending writes if the mapping has been modified since
// the last Persist. Badger commits durably per-transaction already; this
// additionally runs a value-log sync so Close can skip redundant work
// when nothing changed.
func (m *Mapping) Persist() error {
	if !m.dirty.CompareAndSwap(true, false) {
		return nil
	}
	return m.db.Sync()
}

// Close persists any pending state and closes the underlying Badger
// handle. Callers must defer this on every constructed Mapping.
func (m *Mapping) Close() error {
	if err := m.Persist(); err != nil {
		return fmt.Errorf("vidmap: persist on close: %w", err)
	}
	return m.db.Close()
}
