// Package event defines the tagged frames exchanged with journal clients.
// Inbound frames are decoded into validated variants at the boundary;
// outbound events are immutable values built once per emission.
package event

import (
	"encoding/json"
	"journal-live/domain"
	"journal-live/errors"
	"time"

	"github.com/google/uuid"
)

type Type string

// Client -> server.
const (
	SubscribeJournalType   Type = "subscribe_journal"
	UnsubscribeJournalType Type = "unsubscribe_journal"
	TypingStartType        Type = "typing_start"
	TypingStopType         Type = "typing_stop"
	MessageReadType        Type = "message_read"
)

// Server -> client.
const (
	ConnectedType           Type = "connected"
	JournalSubscribedType   Type = "journal_subscribed"
	JournalUnsubscribedType Type = "journal_unsubscribed"
	UserTypingType          Type = "user_typing"
	ReadReceiptType         Type = "message_read"
	NewMessageType          Type = "new_message"
	ReactionUpdatedType     Type = "reaction_updated"
	TokenRefreshedType      Type = "token_refreshed"
	ErrorType               Type = "error"
)

// Outbound is a server emission. Build it with the New* constructors and treat it
// as read-only: WithToken returns a copy.
type Outbound struct {
	ID              uuid.UUID
	Type            Type
	JournalID       domain.JournalID
	OriginUserID    domain.UserID
	Payload         any
	ServerTimestamp time.Time
	Token           *TokenRefreshed
}

type Connected struct {
	UserID domain.UserID `json:"user_id"`
}

type JournalSubscribed struct {
	JournalID domain.JournalID `json:"journal_id"`
}

type JournalUnsubscribed struct {
	JournalID domain.JournalID `json:"journal_id"`
}

type UserTyping struct {
	JournalID domain.JournalID `json:"journal_id"`
	UserID    domain.UserID    `json:"user_id"`
	IsTyping  bool             `json:"isTyping"`
}

type ReadReceipt struct {
	JournalID domain.JournalID `json:"journal_id"`
	MessageID string           `json:"message_id"`
	UserID    domain.UserID    `json:"user_id"`
	ReadAt    time.Time        `json:"read_at"`
}

type NewMessage struct {
	JournalID domain.JournalID `json:"journal_id"`
	Message   domain.Message   `json:"message"`
}

type ReactionUpdated struct {
	JournalID domain.JournalID `json:"journal_id"`
	MessageID string           `json:"message_id"`
	Reactions domain.Reactions `json:"reactions"`
}

type TokenRefreshed struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Error struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

func newOutbound(t Type, journalID domain.JournalID, origin domain.UserID, payload any) Outbound {
	return Outbound{
		ID:              uuid.New(),
		Type:            t,
		JournalID:       journalID,
		OriginUserID:    origin,
		Payload:         payload,
		ServerTimestamp: time.Now().UTC(),
	}
}

func NewConnected(userID domain.UserID) Outbound {
	return newOutbound(ConnectedType, "", userID, Connected{UserID: userID})
}

func NewJournalSubscribed(journalID domain.JournalID, userID domain.UserID) Outbound {
	return newOutbound(JournalSubscribedType, journalID, userID, JournalSubscribed{JournalID: journalID})
}

func NewJournalUnsubscribed(journalID domain.JournalID, userID domain.UserID) Outbound {
	return newOutbound(JournalUnsubscribedType, journalID, userID, JournalUnsubscribed{JournalID: journalID})
}

func NewUserTyping(journalID domain.JournalID, userID domain.UserID, isTyping bool) Outbound {
	return newOutbound(UserTypingType, journalID, userID, UserTyping{
		JournalID: journalID,
		UserID:    userID,
		IsTyping:  isTyping,
	})
}

func NewReadReceipt(journalID domain.JournalID, messageID string, userID domain.UserID) Outbound {
	o := newOutbound(ReadReceiptType, journalID, userID, nil)
	o.Payload = ReadReceipt{
		JournalID: journalID,
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    o.ServerTimestamp,
	}
	return o
}

func NewNewMessage(journalID domain.JournalID, message domain.Message) Outbound {
	message.JournalID = journalID
	return newOutbound(NewMessageType, journalID, message.SenderID, NewMessage{
		JournalID: journalID,
		Message:   message,
	})
}

func NewReactionUpdated(journalID domain.JournalID, messageID string, origin domain.UserID, reactions domain.Reactions) Outbound {
	return newOutbound(ReactionUpdatedType, journalID, origin, ReactionUpdated{
		JournalID: journalID,
		MessageID: messageID,
		Reactions: reactions.Clone(),
	})
}

func NewTokenRefreshed(credential domain.Credential) Outbound {
	return newOutbound(TokenRefreshedType, "", credential.UserID, toTokenRefreshed(credential))
}

func NewError(err error) Outbound {
	return newOutbound(ErrorType, "", "", Error{
		Message: err.Error(),
		Type:    errors.TypeOf(err),
	})
}

// WithToken attaches a refreshed credential to a reply.
func (o Outbound) WithToken(credential domain.Credential) Outbound {
	o.Token = toTokenRefreshed(credential)
	return o
}

func toTokenRefreshed(credential domain.Credential) *TokenRefreshed {
	return &TokenRefreshed{Token: credential.Token, ExpiresAt: credential.ExpiresAt}
}

type outboundFrame struct {
	ID    string          `json:"id"`
	Event Type            `json:"event"`
	Data  any             `json:"data"`
	Token *TokenRefreshed `json:"token,omitempty"`
	At    time.Time       `json:"ts"`
}

// Encode renders the wire frame of an outbound event.
func Encode(o Outbound) ([]byte, error) {
	return json.Marshal(outboundFrame{
		ID:    o.ID.String(),
		Event: o.Type,
		Data:  o.Payload,
		Token: o.Token,
		At:    o.ServerTimestamp,
	})
}
