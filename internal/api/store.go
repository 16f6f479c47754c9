package api

import (
	"sync"
	"time"

	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/scan"
)

// Store holds the collection served by the API. A rescan swaps the whole
// collection; readers never see a partial one.
type Store struct {
	mu        sync.RWMutex
	c         *record.Collection
	summary   scan.Summary
	scannedAt time.Time
}

// NewStore creates a store serving c.
func NewStore(c *record.Collection, sum scan.Summary) *Store {
	s := &Store{}
	s.Set(c, sum)
	return s
}

// Set replaces the served collection.
func (s *Store) Set(c *record.Collection, sum scan.Summary) {
	if c == nil {
		c = record.NewCollection()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c, s.summary, s.scannedAt = c, sum, time.Now()
}

// Collection returns the served collection.
func (s *Store) Collection() *record.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c
}

// Summary returns the summary of the scan that produced the collection.
func (s *Store) Summary() (scan.Summary, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary, s.scannedAt
}
