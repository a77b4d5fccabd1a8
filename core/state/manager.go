package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"ajochain/storage"
)

// Manager provides keyed, RLP-encoded access to ledger state. Writes are
// buffered in memory until Commit flushes them to the backing database as a
// single batch; Discard drops them. A Manager is not safe for concurrent use;
// the node serialises access.
type Manager struct {
	db      storage.Database
	dirty   map[string][]byte
	deleted map[string]struct{}
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) read(hashed []byte) ([]byte, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: manager unavailable")
	}
	if _, ok := m.deleted[string(hashed)]; ok {
		return nil, nil
	}
	if value, ok := m.dirty[string(hashed)]; ok {
		return value, nil
	}
	value, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) write(hashed []byte, value []byte) {
	delete(m.deleted, string(hashed))
	m.dirty[string(hashed)] = value
}

func (m *Manager) remove(hashed []byte) {
	delete(m.dirty, string(hashed))
	m.deleted[string(hashed)] = struct{}{}
}

// Dirty reports the number of buffered, uncommitted mutations.
func (m *Manager) Dirty() int {
	if m == nil {
		return 0
	}
	return len(m.dirty) + len(m.deleted)
}

// Commit flushes buffered writes to the database atomically.
func (m *Manager) Commit() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	if m.Dirty() == 0 {
		return nil
	}
	batch := storage.NewBatch()
	for key, value := range m.dirty {
		batch.Put([]byte(key), value)
	}
	for key := range m.deleted {
		batch.Delete([]byte(key))
	}
	if err := m.db.Write(batch); err != nil {
		return err
	}
	m.Discard()
	return nil
}

// Discard drops every buffered mutation.
func (m *Manager) Discard() {
	if m == nil {
		return
	}
	m.dirty = make(map[string][]byte)
	m.deleted = make(map[string]struct{})
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.write(kvKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.read(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.remove(kvKey(key))
	return nil
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	var list [][]byte
	if err := m.KVGetList(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return m.KVPut(key, list)
}

// KVRemove drops value from the byte slice list stored under key, preserving
// the order of the remaining entries.
func (m *Manager) KVRemove(key []byte, value []byte) error {
	var list [][]byte
	if err := m.KVGetList(key, &list); err != nil {
		return err
	}
	filtered := list[:0]
	for _, existing := range list {
		if !bytes.Equal(existing, value) {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, filtered)
}

// KVGetList decodes the list stored under key into out, which must point to a
// slice. Missing keys yield an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.read(kvKey(key))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("kv: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("kv: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}
