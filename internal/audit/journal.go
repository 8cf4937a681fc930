// Package audit provides an optional append-only journal of response
// decisions, backed by BoltDB. It subscribes to the event bus, so the
// packet pipeline never touches the database and stays stateless; the
// journal is for after-the-fact operator inspection only.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/solodhcpd/solodhcpd/internal/events"
)

var bucketDecisions = []byte("decisions")

// Record is a single journal entry.
type Record struct {
	ID        uint64 `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	MAC       string `json:"mac,omitempty"`
	XID       string `json:"xid,omitempty"`
	MsgType   string `json:"msg_type,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Journal records response decisions from the event bus into BoltDB.
type Journal struct {
	db     *bolt.DB
	bus    *events.Bus
	logger *slog.Logger
	ch     chan events.Event
	done   chan struct{}
}

// Open creates or opens the journal database at path.
func Open(path string, bus *events.Bus, logger *slog.Logger) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening audit database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDecisions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating decisions bucket: %w", err)
	}

	return &Journal{
		db:     db,
		bus:    bus,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Start subscribes to the bus and records events until Stop. Call in a
// goroutine.
func (j *Journal) Start() {
	j.ch = j.bus.Subscribe(500)
	j.logger.Info("audit journal started")

	for {
		select {
		case evt, ok := <-j.ch:
			if !ok {
				return
			}
			if err := j.Append(recordFor(evt)); err != nil {
				j.logger.Warn("writing audit record", "error", err)
			}
		case <-j.done:
			return
		}
	}
}

// Stop shuts down the subscriber and closes the database.
func (j *Journal) Stop() {
	close(j.done)
	if j.ch != nil {
		j.bus.Unsubscribe(j.ch)
	}
	if err := j.db.Close(); err != nil {
		j.logger.Warn("closing audit database", "error", err)
	}
	j.logger.Info("audit journal stopped")
}

// Append persists one record under the next sequence number.
func (j *Journal) Append(rec Record) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDecisions)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = seq

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

// Recent returns up to n records, newest first.
func (j *Journal) Recent(n int) ([]Record, error) {
	var recs []Record
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketDecisions).Cursor()
		for k, v := c.Last(); k != nil && len(recs) < n; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	return recs, err
}

// recordFor converts a bus event into a journal record.
func recordFor(evt events.Event) Record {
	rec := Record{
		Timestamp: evt.Timestamp.Format(time.RFC3339Nano),
		Event:     string(evt.Type),
		MAC:       evt.MAC,
		MsgType:   evt.MsgType,
		Reason:    evt.Reason,
	}
	if evt.XID != 0 {
		rec.XID = fmt.Sprintf("%08x", evt.XID)
	}
	return rec
}
