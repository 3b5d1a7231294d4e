package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fairooos/scanner-web/internal/scanning"
)

const (
	sessionsBucket = "sessions"

	// Slot keys inside each session bucket. Each slot has a single
	// writer: /select owns the document type, /upload owns the preview
	// and the results.
	docTypeKey = "scanner_doc_type"
	previewKey = "scanner_preview_image"
	resultsKey = "scanner_results"
)

// DefaultMaxValueSize caps a single slot value at 5 MiB, about the
// quota a browser grants the equivalent localStorage entry. Base64
// previews of large photos are the only values that get near it.
const DefaultMaxValueSize = 5 << 20

var (
	// ErrNoSelection means no document type has been recorded yet
	ErrNoSelection = errors.New("no document type selected")

	// ErrNoResult means no scan result has been recorded yet
	ErrNoResult = errors.New("no scan result available")

	// ErrValueTooLarge means a write exceeded the per-value capacity
	ErrValueTooLarge = errors.New("value exceeds session store capacity")
)

// SessionStore is the only channel the workflow pages share state
// through: each page load starts from nothing, so the chosen document
// type, the optional preview image and the scan result all travel
// through here. Every write replaces a whole slot or nothing.
type SessionStore interface {
	// SetSelection records the chosen document type
	SetSelection(sessionID string, doc DocumentType) error

	// Selection returns the chosen type, or ErrNoSelection
	Selection(sessionID string) (DocumentType, error)

	// SetPreview stores the encoded preview image, or returns
	// ErrValueTooLarge when it exceeds the per-value capacity
	SetPreview(sessionID, preview string) error

	// Preview returns the stored preview, or ok=false when absent
	Preview(sessionID string) (preview string, ok bool)

	// ClearPreview removes the preview slot
	ClearPreview(sessionID string) error

	// SetResult stores the scan result envelope
	SetResult(sessionID string, result *scanning.ScanResult) error

	// Result returns the stored envelope, or ErrNoResult
	Result(sessionID string) (*scanning.ScanResult, error)

	// Close closes the store
	Close() error
}

// BoltSessionStore implements SessionStore using BoltDB, with one
// nested bucket per browser session
type BoltSessionStore struct {
	db           *bbolt.DB
	maxValueSize int
}

// NewBoltSessionStore creates a BoltSessionStore with the default
// per-value capacity
func NewBoltSessionStore(path string) (*BoltSessionStore, error) {
	return NewBoltSessionStoreWithLimit(path, DefaultMaxValueSize)
}

// NewBoltSessionStoreWithLimit creates a BoltSessionStore with a
// custom per-value capacity, used by tests to force quota failures
func NewBoltSessionStoreWithLimit(path string, maxValueSize int) (*BoltSessionStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions bucket: %w", err)
	}

	return &BoltSessionStore{db: db, maxValueSize: maxValueSize}, nil
}

// put writes one slot value in the session's bucket, creating the
// bucket on first touch. The capacity check runs before the write so
// an oversized value never replaces a stored one.
func (s *BoltSessionStore) put(sessionID, key string, value []byte) error {
	if len(value) > s.maxValueSize {
		return fmt.Errorf("%w: %s is %d bytes (capacity %d)", ErrValueTooLarge, key, len(value), s.maxValueSize)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		session, err := tx.Bucket([]byte(sessionsBucket)).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return fmt.Errorf("creating session bucket: %w", err)
		}
		return session.Put([]byte(key), value)
	})
}

// get copies one slot value out of the session's bucket; ok is false
// when the session or the slot does not exist
func (s *BoltSessionStore) get(sessionID, key string) (value []byte, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		session := tx.Bucket([]byte(sessionsBucket)).Bucket([]byte(sessionID))
		if session == nil {
			return nil
		}
		if data := session.Get([]byte(key)); data != nil {
			// bbolt values are only valid inside the transaction
			value = append([]byte(nil), data...)
			ok = true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// delete removes one slot from the session's bucket
func (s *BoltSessionStore) delete(sessionID, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		session := tx.Bucket([]byte(sessionsBucket)).Bucket([]byte(sessionID))
		if session == nil {
			return nil
		}
		return session.Delete([]byte(key))
	})
}

// SetSelection records the chosen document type
func (s *BoltSessionStore) SetSelection(sessionID string, doc DocumentType) error {
	return s.put(sessionID, docTypeKey, []byte(doc.Key()))
}

// Selection returns the chosen type. A missing slot and a corrupted
// one behave the same way: the session has no usable selection.
func (s *BoltSessionStore) Selection(sessionID string) (DocumentType, error) {
	value, ok, err := s.get(sessionID, docTypeKey)
	if err != nil {
		return DocumentType{}, fmt.Errorf("reading selection: %w", err)
	}
	if !ok {
		return DocumentType{}, ErrNoSelection
	}
	doc, err := ParseDocumentType(string(value))
	if err != nil {
		return DocumentType{}, ErrNoSelection
	}
	return doc, nil
}

// SetPreview stores the encoded preview image
func (s *BoltSessionStore) SetPreview(sessionID, preview string) error {
	return s.put(sessionID, previewKey, []byte(preview))
}

// Preview returns the stored preview. The preview is best-effort
// everywhere, so a read failure degrades to "no preview".
func (s *BoltSessionStore) Preview(sessionID string) (string, bool) {
	value, ok, err := s.get(sessionID, previewKey)
	if err != nil || !ok {
		return "", false
	}
	return string(value), true
}

// ClearPreview removes the preview slot
func (s *BoltSessionStore) ClearPreview(sessionID string) error {
	return s.delete(sessionID, previewKey)
}

// SetResult stores the scan result envelope
func (s *BoltSessionStore) SetResult(sessionID string, result *scanning.ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling scan result: %w", err)
	}
	return s.put(sessionID, resultsKey, data)
}

// Result returns the stored envelope
func (s *BoltSessionStore) Result(sessionID string) (*scanning.ScanResult, error) {
	value, ok, err := s.get(sessionID, resultsKey)
	if err != nil {
		return nil, fmt.Errorf("reading scan result: %w", err)
	}
	if !ok {
		return nil, ErrNoResult
	}
	var result scanning.ScanResult
	if err := json.Unmarshal(value, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling scan result: %w", err)
	}
	return &result, nil
}

// Close closes the store
func (s *BoltSessionStore) Close() error {
	return s.db.Close()
}
