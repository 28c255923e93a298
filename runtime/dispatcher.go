// Package runtime holds the live state of the journal service: connections,
// rooms, presence, and the routing of events between them.
// It does not persist anything; the message store is the system of record.
package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/domain/event"
	"journal-live/errors"
	"log/slog"
	"time"
)

// Dispatcher validates and routes inbound client events and fans out the
// broadcasts requested by the message store.
type Dispatcher struct {
	log      *slog.Logger
	registry *Registry
	monitor  *TokenMonitor
	bridge   contract.IOfflineBridge
}

func NewDispatcher(log *slog.Logger, registry *Registry, monitor *TokenMonitor, bridge contract.IOfflineBridge) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, monitor: monitor, bridge: bridge}
}

// Welcome sends the connected acknowledgement, always the first frame of a connection.
func (d *Dispatcher) Welcome(conn *Connection) error {
	return conn.Deliver(event.NewConnected(conn.UserID()))
}

// Reject answers a malformed frame to its sender only. The credential is
// checked as for any other inbound event, so the returned error is
// connection-fatal like Handle's.
func (d *Dispatcher) Reject(ctx context.Context, conn *Connection, cause error) error {
	conn.Touch(time.Now().UTC())
	refreshed, err := d.monitor.Check(ctx, conn)
	if err != nil {
		d.log.Info("Closing connection with expired token", "user_id", conn.UserID(), "conn_id", conn.ID())
		d.deliver(conn, event.NewError(err))
		return err
	}
	d.replier(conn, refreshed)(event.NewError(cause))
	return nil
}

// Handle processes one inbound event. It is called by the connection's single
// worker so events of a connection never overlap. The returned error is
// connection-fatal; event-level failures are answered with an error frame.
func (d *Dispatcher) Handle(ctx context.Context, conn *Connection, in event.Inbound) error {
	conn.Touch(time.Now().UTC())

	refreshed, err := d.monitor.Check(ctx, conn)
	if err != nil {
		d.log.Info("Closing connection with expired token", "user_id", conn.UserID(), "conn_id", conn.ID())
		d.deliver(conn, event.NewError(err))
		return err
	}

	replied := false
	reply := d.replier(conn, refreshed)
	respond := func(out event.Outbound) {
		replied = true
		reply(out)
	}
	if err = d.route(ctx, conn, in, respond); err != nil {
		d.log.Debug("Event rejected", "event", in.Type, "user_id", conn.UserID(), "error", err)
		respond(event.NewError(err))
	}
	if !replied && refreshed != nil {
		d.deliver(conn, event.NewTokenRefreshed(*refreshed))
	}
	return nil
}

// replier delivers a reply, carrying the refreshed credential when there is one.
func (d *Dispatcher) replier(conn *Connection, refreshed *domain.Credential) func(event.Outbound) {
	return func(out event.Outbound) {
		if refreshed != nil {
			out = out.WithToken(*refreshed)
		}
		d.deliver(conn, out)
	}
}

func (d *Dispatcher) route(ctx context.Context, conn *Connection, in event.Inbound, respond func(event.Outbound)) error {
	switch in.Type {
	case event.SubscribeJournalType:
		journalID := in.JournalID()
		_, err := d.registry.Join(ctx, conn, journalID, func() {
			respond(event.NewJournalSubscribed(journalID, conn.UserID()))
		})
		return err

	case event.UnsubscribeJournalType:
		journalID := in.JournalID()
		d.registry.Unsubscribe(conn, journalID)
		respond(event.NewJournalUnsubscribed(journalID, conn.UserID()))
		return nil

	case event.TypingStartType, event.TypingStopType:
		journalID := in.JournalID()
		if !d.registry.IsMember(conn, journalID) {
			return fmt.Errorf("%w: journal %s", errors.ErrNotSubscribed, journalID)
		}
		d.relay(conn, journalID, event.NewUserTyping(journalID, conn.UserID(), in.Type == event.TypingStartType))
		return nil

	case event.MessageReadType:
		read, ok := in.Payload.(event.MessageRead)
		if !ok {
			return fmt.Errorf("%w: unexpected payload", errors.ErrInvalidEvent)
		}
		if !d.registry.IsMember(conn, read.JournalID) {
			return fmt.Errorf("%w: journal %s", errors.ErrNotSubscribed, read.JournalID)
		}
		d.relay(conn, read.JournalID, event.NewReadReceipt(read.JournalID, read.MessageID, conn.UserID()))
		return nil
	}
	return fmt.Errorf("%w: unknown event %q", errors.ErrInvalidEvent, in.Type)
}

// ApplyPairing removes from the live room every connection whose user is no
// longer a participant, and tells each of them it lost access.
func (d *Dispatcher) ApplyPairing(journalID domain.JournalID, participants domain.Participants) {
	for _, conn := range d.registry.Reconcile(journalID, participants) {
		d.log.Info("Participant removed from live room", "journal_id", journalID, "user_id", conn.UserID(), "conn_id", conn.ID())
		d.deliver(conn, event.NewError(fmt.Errorf("%w: journal %s", errors.ErrForbidden, journalID)))
		d.deliver(conn, event.NewJournalUnsubscribed(journalID, conn.UserID()))
	}
}

// relay sends an ephemeral event to every other member of the room, at most once.
func (d *Dispatcher) relay(sender *Connection, journalID domain.JournalID, out event.Outbound) {
	d.registry.Fanout(journalID, func(members []*Connection) {
		for _, member := range members {
			if member.ID() == sender.ID() {
				continue
			}
			d.deliver(member, out)
		}
	})
}

// BroadcastMessage delivers a committed message to every member of the room,
// the sender's other devices included.
func (d *Dispatcher) BroadcastMessage(ctx context.Context, journalID domain.JournalID, message domain.Message) {
	out := event.NewNewMessage(journalID, message)
	d.broadcast(ctx, journalID, out, domain.PushSummary{
		Kind:     domain.PushNewMessage,
		FromUser: message.SenderID,
		Title:    "New journal entry",
		Body:     message.Preview(),
	})
}

// BroadcastReaction delivers the full reaction state of a message.
func (d *Dispatcher) BroadcastReaction(ctx context.Context, journalID domain.JournalID, messageID string, reactions domain.Reactions) {
	out := event.NewReactionUpdated(journalID, messageID, "", reactions)
	d.broadcast(ctx, journalID, out, domain.PushSummary{
		Kind:  domain.PushReaction,
		Title: "New reaction",
		Body:  "Your partner reacted to a journal entry",
	})
}

func (d *Dispatcher) broadcast(ctx context.Context, journalID domain.JournalID, out event.Outbound, summary domain.PushSummary) {
	present := make(map[domain.UserID]struct{}, 2)
	d.registry.Fanout(journalID, func(members []*Connection) {
		for _, member := range members {
			present[member.UserID()] = struct{}{}
			d.deliver(member, out)
		}
	})

	participants, err := d.registry.Participants(ctx, journalID)
	if err != nil {
		d.log.Warn("Participants unknown, skipping offline fallback", "journal_id", journalID, "error", err)
		return
	}
	for _, userID := range participants.Both() {
		if _, ok := present[userID]; ok {
			continue
		}
		d.bridge.NotifyOffline(userID, journalID, summary)
	}
}

// deliver fails silently for closed sinks; a saturated sink gets its
// connection closed so the client reconnects and resynchronizes.
func (d *Dispatcher) deliver(conn *Connection, out event.Outbound) {
	err := conn.Deliver(out)
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrSlowConsumer):
		d.log.Warn("Slow consumer, closing connection", "conn_id", conn.ID(), "user_id", conn.UserID())
		conn.Close(err)
	default:
		d.log.Debug("Delivery skipped", "conn_id", conn.ID(), "event", out.Type, "error", err)
	}
}
