package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type RegistryConfig struct {
	ParticipantsTTL   time.Duration
	PairingTimeout    time.Duration
	MaxCachedJournals int64
}

// room is the live multicast group of one journal.
// mu guards membership, sendMu serializes fan-out so every member sees the
// room's events in the same order.
type room struct {
	id      domain.JournalID
	mu      sync.RWMutex
	sendMu  sync.Mutex
	members map[domain.ConnectionID]*Connection
	evicted bool
}

// Registry tracks live connections, room membership and presence.
// The rooms map lock is only held to find, create or evict a room; membership
// changes take the room's own lock.
type Registry struct {
	log          *slog.Logger
	pairing      contract.IPairingService
	participants *ristretto.Cache[string, domain.Participants]
	config       RegistryConfig

	mu    sync.RWMutex
	rooms map[domain.JournalID]*room

	connMu      sync.RWMutex
	connections map[domain.ConnectionID]*Connection

	presenceMu sync.Mutex
	presence   map[domain.UserID]int

	// generations is bumped on every pairing change of a journal; lookups that
	// started under an older generation neither cache nor join.
	genMu       sync.Mutex
	generations map[domain.JournalID]uint64
}

func NewRegistry(log *slog.Logger, pairing contract.IPairingService, config RegistryConfig) (*Registry, error) {
	if config.MaxCachedJournals <= 0 {
		config.MaxCachedJournals = 10_000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, domain.Participants]{
		NumCounters: config.MaxCachedJournals * 10,
		MaxCost:     config.MaxCachedJournals,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("participants cache: %w", err)
	}
	return &Registry{
		log:          log,
		pairing:      pairing,
		participants: cache,
		config:       config,
		rooms:        make(map[domain.JournalID]*room),
		connections:  make(map[domain.ConnectionID]*Connection),
		presence:     make(map[domain.UserID]int),
		generations:  make(map[domain.JournalID]uint64),
	}, nil
}

// Connect registers an authenticated socket.
func (r *Registry) Connect(credential domain.Credential, sink contract.EventSink) *Connection {
	conn := newConnection(domain.ConnectionID(uuid.NewString()), credential, sink)
	r.connMu.Lock()
	r.connections[conn.id] = conn
	r.connMu.Unlock()
	r.log.Debug("Connection registered", "conn_id", conn.id, "user_id", conn.userID)
	return conn
}

// Disconnect removes the connection and leaves every room it joined.
func (r *Registry) Disconnect(conn *Connection) {
	for _, journalID := range conn.markClosed() {
		r.Unsubscribe(conn, journalID)
	}
	r.connMu.Lock()
	delete(r.connections, conn.id)
	r.connMu.Unlock()
	r.log.Debug("Connection removed", "conn_id", conn.id, "user_id", conn.userID)
}

// Participants resolves the pairing of a journal, served from a TTL cache.
func (r *Registry) Participants(ctx context.Context, journalID domain.JournalID) (domain.Participants, error) {
	p, _, err := r.lookup(ctx, journalID)
	return p, err
}

// lookup also returns the pairing generation the result belongs to.
func (r *Registry) lookup(ctx context.Context, journalID domain.JournalID) (domain.Participants, uint64, error) {
	generation := r.generation(journalID)
	if p, ok := r.participants.Get(journalID.String()); ok {
		return p, generation, nil
	}
	lookupCtx, cancel := context.WithTimeout(ctx, r.config.PairingTimeout)
	defer cancel()
	p, err := r.pairing.ParticipantsOf(lookupCtx, journalID)
	if err != nil {
		return domain.Participants{}, generation, err
	}
	if err = p.Validate(); err != nil {
		return domain.Participants{}, generation, err
	}

	r.genMu.Lock()
	stale := r.generations[journalID] != generation
	if !stale {
		r.participants.SetWithTTL(journalID.String(), p, 1, r.config.ParticipantsTTL)
	}
	r.genMu.Unlock()
	if !stale {
		r.participants.Wait()
	}
	return p, generation, nil
}

func (r *Registry) generation(journalID domain.JournalID) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.generations[journalID]
}

// InvalidateParticipants drops the cached pairing of a journal.
func (r *Registry) InvalidateParticipants(journalID domain.JournalID) {
	r.genMu.Lock()
	r.generations[journalID]++
	r.participants.Del(journalID.String())
	r.genMu.Unlock()
	r.participants.Wait()
}

// Reconcile applies a new pairing to a live room: the cached pairing is dropped
// and every member who is no longer a participant leaves. The removed
// connections are returned; none of them gets a room event sent after the call.
func (r *Registry) Reconcile(journalID domain.JournalID, participants domain.Participants) []*Connection {
	r.InvalidateParticipants(journalID)

	rm := r.getRoom(journalID)
	if rm == nil {
		return nil
	}
	rm.sendMu.Lock()
	rm.mu.Lock()
	var removed []*Connection
	for id, member := range rm.members {
		if participants.Includes(member.userID) {
			continue
		}
		delete(rm.members, id)
		member.left(journalID)
		r.decPresence(member.userID)
		removed = append(removed, member)
	}
	empty := len(rm.members) == 0
	rm.mu.Unlock()
	rm.sendMu.Unlock()

	if empty {
		r.evictIfEmpty(rm)
	}
	if len(removed) > 0 {
		r.log.Info("Members removed after pairing change", "journal_id", journalID, "count", len(removed))
	}
	return removed
}

// Subscribe joins the connection to the journal's room. It reports whether the
// membership is new; subscribing twice is a no-op.
func (r *Registry) Subscribe(ctx context.Context, conn *Connection, journalID domain.JournalID) (bool, error) {
	return r.Join(ctx, conn, journalID, nil)
}

// Join is Subscribe with an acknowledgement: onJoined runs under the room's
// send lock, so nothing broadcast to the room reaches the connection before it.
func (r *Registry) Join(ctx context.Context, conn *Connection, journalID domain.JournalID, onJoined func()) (bool, error) {
	for {
		participants, generation, err := r.lookup(ctx, journalID)
		if err != nil {
			if stderrors.Is(err, errors.ErrPairingNotFound) || stderrors.Is(err, errors.ErrInvalidPairing) {
				return false, fmt.Errorf("%w: journal %s", errors.ErrForbidden, journalID)
			}
			return false, fmt.Errorf("participants of journal %s: %w", journalID, err)
		}
		if !participants.Includes(conn.userID) {
			return false, fmt.Errorf("%w: journal %s", errors.ErrForbidden, journalID)
		}

		added, retry, err := r.join(conn, journalID, generation, onJoined)
		if retry {
			continue
		}
		return added, err
	}
}

// join adds the member under the room lock. retry is set when the room was
// evicted meanwhile or the pairing changed since it was resolved.
func (r *Registry) join(conn *Connection, journalID domain.JournalID, generation uint64, onJoined func()) (added, retry bool, err error) {
	rm := r.getOrCreateRoom(journalID)
	rm.sendMu.Lock()
	defer rm.sendMu.Unlock()
	rm.mu.Lock()
	if rm.evicted || r.generation(journalID) != generation {
		rm.mu.Unlock()
		r.evictIfEmpty(rm)
		return false, true, nil
	}
	if _, ok := rm.members[conn.id]; !ok {
		if !conn.joined(journalID) {
			rm.mu.Unlock()
			r.evictIfEmpty(rm)
			return false, false, errors.ErrSinkClosed
		}
		rm.members[conn.id] = conn
		r.incPresence(conn.userID)
		added = true
	}
	rm.mu.Unlock()

	if onJoined != nil {
		onJoined()
	}
	return added, false, nil
}

// Unsubscribe leaves the room and evicts it once empty. It reports whether the
// connection was a member.
func (r *Registry) Unsubscribe(conn *Connection, journalID domain.JournalID) bool {
	rm := r.getRoom(journalID)
	if rm == nil {
		conn.left(journalID)
		return false
	}
	rm.mu.Lock()
	_, member := rm.members[conn.id]
	delete(rm.members, conn.id)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	conn.left(journalID)
	if member {
		r.decPresence(conn.userID)
	}
	if empty {
		r.evictIfEmpty(rm)
	}
	return member
}

// MembersOf returns a snapshot of the room members. An unknown journal has none.
func (r *Registry) MembersOf(journalID domain.JournalID) []*Connection {
	rm := r.getRoom(journalID)
	if rm == nil {
		return nil
	}
	return rm.snapshot()
}

func (r *Registry) IsMember(conn *Connection, journalID domain.JournalID) bool {
	rm := r.getRoom(journalID)
	if rm == nil {
		return false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, ok := rm.members[conn.id]
	return ok
}

// Fanout runs send with a membership snapshot while holding the room's send
// lock, which gives every member the room's events in one order.
func (r *Registry) Fanout(journalID domain.JournalID, send func(members []*Connection)) {
	rm := r.getRoom(journalID)
	if rm == nil {
		send(nil)
		return
	}
	rm.sendMu.Lock()
	defer rm.sendMu.Unlock()
	send(rm.snapshot())
}

// IsOnline reports whether the user holds at least one live subscription.
func (r *Registry) IsOnline(userID domain.UserID) bool {
	r.presenceMu.Lock()
	defer r.presenceMu.Unlock()
	return r.presence[userID] > 0
}

func (r *Registry) Stats() domain.LiveStats {
	r.mu.RLock()
	rooms := len(r.rooms)
	r.mu.RUnlock()
	r.connMu.RLock()
	connections := len(r.connections)
	r.connMu.RUnlock()
	r.presenceMu.Lock()
	online := len(r.presence)
	r.presenceMu.Unlock()
	return domain.LiveStats{Rooms: rooms, Connections: connections, OnlineUsers: online}
}

// Close releases the participants cache.
func (r *Registry) Close() {
	r.participants.Close()
}

func (r *Registry) getRoom(journalID domain.JournalID) *room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[journalID]
}

func (r *Registry) getOrCreateRoom(journalID domain.JournalID) *room {
	if rm := r.getRoom(journalID); rm != nil {
		return rm
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rm, ok := r.rooms[journalID]; ok {
		return rm
	}
	rm := &room{id: journalID, members: make(map[domain.ConnectionID]*Connection)}
	r.rooms[journalID] = rm
	return rm
}

// evictIfEmpty takes the map lock before the room lock; Join never holds
// both, so a subscriber racing the eviction sees evicted and retries.
func (r *Registry) evictIfEmpty(rm *room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.members) == 0 && r.rooms[rm.id] == rm {
		delete(r.rooms, rm.id)
		rm.evicted = true
		r.log.Debug("Room evicted", "journal_id", rm.id)
	}
}

func (r *Registry) incPresence(userID domain.UserID) {
	r.presenceMu.Lock()
	defer r.presenceMu.Unlock()
	r.presence[userID]++
}

func (r *Registry) decPresence(userID domain.UserID) {
	r.presenceMu.Lock()
	defer r.presenceMu.Unlock()
	if r.presence[userID] <= 1 {
		delete(r.presence, userID)
		return
	}
	r.presence[userID]--
}

func (rm *room) snapshot() []*Connection {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return lo.Values(rm.members)
}
