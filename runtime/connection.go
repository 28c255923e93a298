package runtime

import (
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/domain/event"
	"journal-live/errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Connection is the registry's record of one authenticated socket.
// The user id is bound at creation and never changes.
type Connection struct {
	id     domain.ConnectionID
	userID domain.UserID
	sink   contract.EventSink

	mu           sync.Mutex
	credential   domain.Credential
	rooms        map[domain.JournalID]struct{}
	lastActivity time.Time
	closed       bool
}

func newConnection(id domain.ConnectionID, credential domain.Credential, sink contract.EventSink) *Connection {
	return &Connection{
		id:           id,
		userID:       credential.UserID,
		sink:         sink,
		credential:   credential,
		rooms:        make(map[domain.JournalID]struct{}),
		lastActivity: time.Now().UTC(),
	}
}

func (c *Connection) ID() domain.ConnectionID { return c.id }

func (c *Connection) UserID() domain.UserID { return c.userID }

func (c *Connection) Credential() domain.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

func (c *Connection) setCredential(credential domain.Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = credential
}

func (c *Connection) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = now
}

func (c *Connection) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Rooms returns the journals this connection is currently subscribed to.
func (c *Connection) Rooms() []domain.JournalID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Keys(c.rooms)
}

func (c *Connection) joined(journalID domain.JournalID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.rooms[journalID] = struct{}{}
	return true
}

func (c *Connection) left(journalID domain.JournalID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, journalID)
}

func (c *Connection) markClosed() []domain.JournalID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return lo.Keys(c.rooms)
}

// Deliver enqueues an event on the connection's sink.
func (c *Connection) Deliver(e event.Outbound) error {
	if c.sink == nil {
		return errors.ErrSinkClosed
	}
	return c.sink.Deliver(e)
}

// Close asks the transport to terminate the socket.
func (c *Connection) Close(reason error) {
	if c.sink != nil {
		c.sink.Close(reason)
	}
}
