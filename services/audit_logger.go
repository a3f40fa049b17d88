package services

import (
	"context"
	"log"
	"sync"
	"time"

	"main/model"
	"main/utils"
)

// AuditStore persists audit records. Owned by the document store in
// production; tests substitute an in-memory implementation.
type AuditStore interface {
	Insert(ctx context.Context, rec *model.AuditLogRecord) error
}

// AuditLogger persists audit records asynchronously relative to the
// HTTP response. Records are handed off on a buffered channel and
// written by a background worker; a write failure is counted and
// logged, never surfaced to the request that produced the record. When
// the buffer is full the record is dropped rather than delaying the
// response.
type AuditLogger struct {
	store   AuditStore
	records chan *model.AuditLogRecord
	done    chan struct{}
	wg      sync.WaitGroup

	writeTimeout time.Duration
}

func NewAuditLogger(store AuditStore, bufferSize int) *AuditLogger {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	al := &AuditLogger{
		store:        store,
		records:      make(chan *model.AuditLogRecord, bufferSize),
		done:         make(chan struct{}),
		writeTimeout: 10 * time.Second,
	}
	al.wg.Add(1)
	go al.run()
	return al
}

// Record enqueues rec for persistence. It never blocks.
func (al *AuditLogger) Record(rec *model.AuditLogRecord) {
	if al == nil || rec == nil {
		return
	}
	select {
	case al.records <- rec:
	default:
		utils.TrackAuditRecord("dropped")
		log.Printf("Warning: audit buffer full, dropping record for %s %s", rec.ActionType, rec.Resource)
	}
}

func (al *AuditLogger) run() {
	defer al.wg.Done()
	for {
		select {
		case rec := <-al.records:
			al.write(rec)
		case <-al.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case rec := <-al.records:
					al.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (al *AuditLogger) write(rec *model.AuditLogRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), al.writeTimeout)
	defer cancel()

	if err := al.store.Insert(ctx, rec); err != nil {
		utils.TrackAuditRecord("failed")
		log.Printf("Warning: failed to persist audit record for %s %s: %v", rec.ActionType, rec.Resource, err)
		return
	}
	utils.TrackAuditRecord("written")
}

// Close stops the worker after draining queued records.
func (al *AuditLogger) Close() {
	close(al.done)
	al.wg.Wait()
}
