package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// Key-space layout (SPEC_FULL.md §6):
//
//	oidKey:       [docSpace, subObject,      uid(8 BE), objectID...] -> docID (4 BE, stored in the oidIndex bucket)
//	docStateKey:  [docSpace, subDocState,    docID(4 BE)]            -> doc_state bytes
//	svKey:        [docSpace, subStateVector, docID(4 BE)]            -> state vector bytes
//	updateKey:    [docSpace, subUpdate,      docID(4 BE), clock(4 BE)] -> update bytes
//
// The snapshot space mirrors the same sub-space layout under a distinct
// top byte; this module does not currently write snapshots (see
// SPEC_FULL.md open questions on retention policy) but reserves the byte
// so a future snapshot writer does not collide with live document keys.
const (
	spaceDoc      byte = 0x01
	spaceSnapshot byte = 0x02
)

const (
	subObject      byte = 0x01
	subDocState    byte = 0x02
	subStateVector byte = 0x03
	subUpdate      byte = 0x04
)

var (
	bucketOidIndex = []byte("oid_index") // oidKey -> docID (4 bytes BE)
	bucketDocIDSeq = []byte("doc_id_seq") // single counter key, via NextSequence
	bucketKV       = []byte("kv")         // every other key in the schema above
)

// BoltService is the bbolt-backed PersistenceService implementation.
type BoltService struct {
	db *bolt.DB
}

// NewBoltService opens (creating if necessary) a bbolt file under dataDir.
func NewBoltService(dataDir string) (*BoltService, error) {
	dbPath := filepath.Join(dataDir, "collabkit.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open persistence db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketOidIndex, bucketDocIDSeq, bucketKV} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltService{db: db}, nil
}

func (s *BoltService) Close() error {
	return s.db.Close()
}

func oidKey(uid int64, objectID string) []byte {
	key := make([]byte, 0, 2+8+len(objectID))
	key = append(key, spaceDoc, subObject)
	var uidBuf [8]byte
	binary.BigEndian.PutUint64(uidBuf[:], uint64(uid))
	key = append(key, uidBuf[:]...)
	key = append(key, []byte(objectID)...)
	return key
}

func docStateKey(docID uint32) []byte {
	key := make([]byte, 0, 6)
	key = append(key, spaceDoc, subDocState)
	return binary.BigEndian.AppendUint32(key, docID)
}

func svKey(docID uint32) []byte {
	key := make([]byte, 0, 6)
	key = append(key, spaceDoc, subStateVector)
	return binary.BigEndian.AppendUint32(key, docID)
}

func updatePrefix(docID uint32) []byte {
	key := make([]byte, 0, 6)
	key = append(key, spaceDoc, subUpdate)
	return binary.BigEndian.AppendUint32(key, docID)
}

func updateKey(docID uint32, clock uint32) []byte {
	key := updatePrefix(docID)
	return binary.BigEndian.AppendUint32(key, clock)
}

// lookupOrCreateDocID returns the docID for (uid, objectID), assigning a
// fresh monotonic one (via the doc_id_seq bucket's sequence counter) when
// the object has never been seen.
func (s *BoltService) lookupOrCreateDocID(tx *bolt.Tx, uid int64, objectID string) (uint32, error) {
	idx := tx.Bucket(bucketOidIndex)
	key := oidKey(uid, objectID)
	if v := idx.Get(key); v != nil {
		return binary.BigEndian.Uint32(v), nil
	}

	seqBucket := tx.Bucket(bucketDocIDSeq)
	next, err := seqBucket.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("allocate doc id: %w", err)
	}
	docID := uint32(next)

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], docID)
	if err := idx.Put(key, buf[:]); err != nil {
		return 0, err
	}
	return docID, nil
}

func (s *BoltService) lookupDocID(tx *bolt.Tx, uid int64, objectID string) (uint32, bool) {
	v := tx.Bucket(bucketOidIndex).Get(oidKey(uid, objectID))
	if v == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v), true
}

func (s *BoltService) Exists(_ context.Context, uid int64, objectID string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		_, exists = s.lookupDocID(tx, uid, objectID)
		return nil
	})
	return exists, err
}

func (s *BoltService) Load(_ context.Context, uid int64, objectID string) ([]byte, []byte, bool, error) {
	var sv, docState []byte
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		docID, found := s.lookupDocID(tx, uid, objectID)
		if !found {
			return nil
		}
		kv := tx.Bucket(bucketKV)
		ds := kv.Get(docStateKey(docID))
		if ds == nil {
			return nil
		}
		ok = true
		docState = append([]byte(nil), ds...)
		if svBytes := kv.Get(svKey(docID)); svBytes != nil {
			sv = append([]byte(nil), svBytes...)
		}
		return nil
	})
	return sv, docState, ok, err
}

func (s *BoltService) Upsert(_ context.Context, uid int64, objectID string, update []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		docID, err := s.lookupOrCreateDocID(tx, uid, objectID)
		if err != nil {
			return err
		}
		kv := tx.Bucket(bucketKV)
		clock, err := s.nextClock(kv, docID)
		if err != nil {
			return err
		}
		return kv.Put(updateKey(docID, clock), update)
	})
}

// nextClock scans the highest existing clock for docID's update range and
// returns the next one. The update range is small between flushes (it is
// compacted by FlushDoc), so a linear cursor scan is acceptable.
func (s *BoltService) nextClock(kv *bolt.Bucket, docID uint32) (uint32, error) {
	prefix := updatePrefix(docID)
	c := kv.Cursor()
	var last uint32
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		last = binary.BigEndian.Uint32(k[len(k)-4:])
	}
	return last + 1, nil
}

func (s *BoltService) PendingUpdates(_ context.Context, uid int64, objectID string) ([][]byte, error) {
	var updates [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		docID, found := s.lookupDocID(tx, uid, objectID)
		if !found {
			return nil
		}
		kv := tx.Bucket(bucketKV)
		prefix := updatePrefix(docID)
		c := kv.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			updates = append(updates, append([]byte(nil), v...))
		}
		return nil
	})
	return updates, err
}

func (s *BoltService) FlushDoc(_ context.Context, uid int64, objectID string, stateVector, docState []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		docID, err := s.lookupOrCreateDocID(tx, uid, objectID)
		if err != nil {
			return err
		}
		kv := tx.Bucket(bucketKV)
		if err := kv.Put(docStateKey(docID), docState); err != nil {
			return err
		}
		if err := kv.Put(svKey(docID), stateVector); err != nil {
			return err
		}
		return deleteRange(kv, updatePrefix(docID))
	})
}

func (s *BoltService) Delete(_ context.Context, uid int64, objectID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketOidIndex)
		key := oidKey(uid, objectID)
		docID, found := s.lookupDocID(tx, uid, objectID)
		if !found {
			return nil
		}
		kv := tx.Bucket(bucketKV)
		if err := kv.Delete(docStateKey(docID)); err != nil {
			return err
		}
		if err := kv.Delete(svKey(docID)); err != nil {
			return err
		}
		if err := deleteRange(kv, updatePrefix(docID)); err != nil {
			return err
		}
		return idx.Delete(key)
	})
}

func deleteRange(b *bolt.Bucket, prefix []byte) error {
	c := b.Cursor()
	var toDelete [][]byte
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		toDelete = append(toDelete, append([]byte(nil), k...))
	}
	for _, k := range toDelete {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

var _ Service = (*BoltService)(nil)
