package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// EventLog is a hash-chained, in-memory record of auth transitions. Entries
// never contain secrets, only what happened and when; the chain makes
// after-the-fact tampering detectable within the process lifetime.

type Event struct {
	TS   int64  `json:"ts"`
	What string `json:"what"`
	Hash string `json:"hash"`
}

type EventLog struct {
	mu       sync.Mutex
	lastHash []byte
	entries  []Event
}

func NewEventLog() *EventLog { return &EventLog{} }

func (l *EventLog) Append(what string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := sha256.New()
	h.Write(l.lastHash)
	h.Write([]byte(what))
	sum := h.Sum(nil)
	l.lastHash = sum
	e := Event{TS: time.Now().Unix(), What: what, Hash: hex.EncodeToString(sum)}
	l.entries = append(l.entries, e)
	return e
}

// Verify walks the chain and fails on the first broken link.
func (l *EventLog) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var prev []byte
	for i, e := range l.entries {
		h := sha256.New()
		h.Write(prev)
		h.Write([]byte(e.What))
		sum := h.Sum(nil)
		if hex.EncodeToString(sum) != e.Hash {
			return fmt.Errorf("auth: event chain broken at %d", i)
		}
		prev = sum
	}
	return nil
}

func (l *EventLog) Entries() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.entries...)
}
