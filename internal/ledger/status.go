// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import "fmt"

// Status is the lifecycle state of a DOI in the ledger.
type Status string

const (
	// StatusUnprocessed marks a DOI that is eligible for processing.
	// It is both the initial state and the retry target after a
	// recoverable downstream error.
	StatusUnprocessed Status = "unprocessed"

	// StatusMessageSent marks a DOI whose submission message has been
	// enqueued and whose result is awaited.
	StatusMessageSent Status = "message_sent"

	// StatusSuccess marks a DOI the downstream service ingested. Terminal.
	StatusSuccess Status = "success"

	// StatusFailed marks a DOI that exhausted its retry budget. Terminal.
	StatusFailed Status = "failed"
)

var allStatuses = []Status{
	StatusUnprocessed,
	StatusMessageSent,
	StatusSuccess,
	StatusFailed,
}

// transitions enumerates every legal status edge.
var transitions = map[Status]map[Status]struct{}{
	StatusUnprocessed: {StatusMessageSent: {}},
	StatusMessageSent: {
		StatusSuccess:     {},
		StatusUnprocessed: {},
		StatusFailed:      {},
	},
	StatusSuccess: {},
	StatusFailed:  {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransitionTo reports whether the edge s -> to is legal.
func (s Status) CanTransitionTo(to Status) bool {
	targets, ok := transitions[s]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// ParseStatus converts a stored string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown ledger status %q", raw)
	}
	return s, nil
}
