// Package domain contains core concepts of the journal system.
// This file defines journal messages and reaction snapshots.
// They are relayed as committed by the message store and never mutated here.
package domain

import (
	"time"
	"unicode/utf8"
)

const summaryPreviewLength = 80

// Message is a journal entry already persisted by the message store.
type Message struct {
	ID              string    `json:"id" validate:"required"`
	JournalID       JournalID `json:"journal_id,omitempty"`
	SenderID        UserID    `json:"sender_id" validate:"required"`
	Type            string    `json:"type,omitempty"`
	Content         string    `json:"content"`
	ClientMessageID string    `json:"client_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Reactions is the full reaction state of one message: emoji -> users.
type Reactions map[string][]UserID

// Clone copies the snapshot so the broadcast payload cannot be altered by the caller.
func (r Reactions) Clone() Reactions {
	if r == nil {
		return Reactions{}
	}
	out := make(Reactions, len(r))
	for emoji, users := range r {
		out[emoji] = append([]UserID(nil), users...)
	}
	return out
}

// Preview shortens the content for push notification bodies.
func (m Message) Preview() string {
	if utf8.RuneCountInString(m.Content) <= summaryPreviewLength {
		return m.Content
	}
	runes := []rune(m.Content)
	return string(runes[:summaryPreviewLength]) + "…"
}
