package controlplane

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.etcd.io/bbolt"
)

var auditBucket = []byte("audit_events")

// AuditLog is a durable, append-only record of control-plane operations
// (plan reloads, mode switches, denied auth attempts), kept in a small
// bbolt database so a restart doesn't lose the trail.
type AuditLog struct {
	db *bbolt.DB
}

// AuditEntry is one recorded control-plane operation.
type AuditEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Kind      string                 `json:"kind"`
	RemoteIP  string                 `json:"remote_ip,omitempty"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
}

// NewAuditLog opens (creating if necessary) a bbolt database at path.
func NewAuditLog(path string) (*AuditLog, error) {
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("controlplane: open audit log: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(auditBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("controlplane: init audit bucket: %w", err)
	}

	return &AuditLog{db: db}, nil
}

// Close closes the underlying database.
func (a *AuditLog) Close() error {
	return a.db.Close()
}

// Record appends one entry keyed by a monotonically increasing sequence
// so iteration order matches insertion order.
func (a *AuditLog) Record(entry AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("controlplane: marshal audit entry: %w", err)
	}

	return a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(auditBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, payload)
	})
}

// Recent returns up to limit entries, most recent first.
func (a *AuditLog) Recent(limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := a.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(auditBucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e AuditEntry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

func (s *Server) auditDenied(r *http.Request) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(AuditEntry{
		Timestamp: time.Now(),
		Kind:      "auth_denied",
		RemoteIP:  r.RemoteAddr,
		Detail:    map[string]interface{}{"path": r.URL.Path},
	})
}
