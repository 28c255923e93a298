// Package domain contains core concepts of the journal system.
// This file defines the participant pairing of a journal and its invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"journal-live/errors"
	"time"
)

// Participants are the two partners allowed in a journal's room.
type Participants struct {
	UserA UserID `json:"user_a" cbor:"1,keyasint"`
	UserB UserID `json:"user_b" cbor:"2,keyasint"`
}

func NewParticipants(a, b UserID) (Participants, error) {
	p := Participants{UserA: a, UserB: b}
	return p, p.Validate()
}

// Validate rejects empty slots and self-pairing.
func (p Participants) Validate() error {
	if p.UserA == "" || p.UserB == "" || p.UserA == p.UserB {
		return errors.ErrInvalidPairing
	}
	return nil
}

func (p Participants) Includes(userID UserID) bool {
	return userID != "" && (p.UserA == userID || p.UserB == userID)
}

func (p Participants) Both() []UserID {
	return []UserID{p.UserA, p.UserB}
}

// Pairing is a stored participants record of one journal.
type Pairing struct {
	JournalID    JournalID    `json:"journal_id" cbor:"1,keyasint"`
	Participants Participants `json:"participants" cbor:"2,keyasint"`
	UpdatedAt    time.Time    `json:"updated_at" cbor:"3,keyasint"`
}
