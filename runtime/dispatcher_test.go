package runtime

import (
	"context"
	"fmt"
	"journal-live/domain"
	"journal-live/domain/event"
	"journal-live/errors"
	"journal-live/mocks"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type dispatcherFixture struct {
	registry   *Registry
	dispatcher *Dispatcher
	tokens     *mocks.MockITokenService
	bridge     *mocks.MockIOfflineBridge
}

func newDispatcherFixture(t *testing.T) dispatcherFixture {
	ctrl := gomock.NewController(t)
	pairing := mocks.NewMockIPairingService(ctrl)
	pairedJournals(pairing)
	tokens := mocks.NewMockITokenService(ctrl)
	bridge := mocks.NewMockIOfflineBridge(ctrl)
	registry := newTestRegistry(t, pairing, testRegistryConfig())
	monitor := NewTokenMonitor(testLogger(), tokens, 5*time.Minute, time.Second)
	return dispatcherFixture{
		registry:   registry,
		dispatcher: NewDispatcher(testLogger(), registry, monitor, bridge),
		tokens:     tokens,
		bridge:     bridge,
	}
}

func (f dispatcherFixture) connect(t *testing.T, userID domain.UserID, journals ...domain.JournalID) (*Connection, *recordingSink) {
	sink := &recordingSink{}
	conn := f.registry.Connect(credentialFor(userID), sink)
	require.NoError(t, f.dispatcher.Welcome(conn))
	for _, journalID := range journals {
		require.NoError(t, f.dispatcher.Handle(context.Background(), conn, subscribe(journalID)))
	}
	return conn, sink
}

func subscribe(journalID domain.JournalID) event.Inbound {
	return event.Inbound{Type: event.SubscribeJournalType, Payload: event.JournalRef{JournalID: journalID}}
}

func typing(journalID domain.JournalID, start bool) event.Inbound {
	t := event.TypingStopType
	if start {
		t = event.TypingStartType
	}
	return event.Inbound{Type: t, Payload: event.JournalRef{JournalID: journalID}}
}

func message(id string, sender domain.UserID) domain.Message {
	return domain.Message{ID: id, SenderID: sender, Type: "text", Content: "hello " + id, CreatedAt: time.Now().UTC()}
}

func TestDispatcher_Welcome_Is_First_Frame(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)

	_, sink := f.connect(t, "u1", "41")

	events := sink.Events()
	req.Len(events, 2)
	req.Equal(event.ConnectedType, events[0].Type)
	req.Equal(event.Connected{UserID: "u1"}, events[0].Payload)
	req.Equal(event.JournalSubscribedType, events[1].Type)
	req.Equal(domain.JournalID("41"), events[1].JournalID)
}

func TestDispatcher_Subscribe_Twice_Acknowledges_Twice(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)

	_, sink := f.connect(t, "u1", "41", "41")

	req.Len(sink.OfType(event.JournalSubscribedType), 2)
	req.Len(f.registry.MembersOf("41"), 1)
}

func TestDispatcher_Subscribe_Forbidden(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)

	// Given U3 is not a participant of journal 41
	conn, sink := f.connect(t, "u3")

	// When U3 subscribes journal 41
	err := f.dispatcher.Handle(context.Background(), conn, subscribe("41"))

	// Then the connection stays open and U3 gets a forbidden error
	req.NoError(err)
	errs := sink.OfType(event.ErrorType)
	req.Len(errs, 1)
	req.Equal(errors.TypeForbidden, errs[0].Payload.(event.Error).Type)
	req.Empty(f.registry.MembersOf("41"))
	req.Nil(sink.ClosedBy())
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	conn, sink := f.connect(t, "u1", "41")

	err := f.dispatcher.Handle(context.Background(), conn,
		event.Inbound{Type: event.UnsubscribeJournalType, Payload: event.JournalRef{JournalID: "41"}})

	req.NoError(err)
	req.Len(sink.OfType(event.JournalUnsubscribedType), 1)
	req.Empty(f.registry.MembersOf("41"))
}

func TestDispatcher_Typing_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	phone, phoneSink := f.connect(t, "u1", "41")
	_, laptopSink := f.connect(t, "u1", "41")
	_, partnerSink := f.connect(t, "u2", "41")

	// When U1 starts typing on the phone
	req.NoError(f.dispatcher.Handle(context.Background(), phone, typing("41", true)))
	req.NoError(f.dispatcher.Handle(context.Background(), phone, typing("41", false)))

	// Then the phone gets nothing back and every other connection gets exactly one event each
	req.Empty(phoneSink.OfType(event.UserTypingType))
	for _, sink := range []*recordingSink{laptopSink, partnerSink} {
		typingEvents := sink.OfType(event.UserTypingType)
		req.Len(typingEvents, 2)
		req.Equal(event.UserTyping{JournalID: "41", UserID: "u1", IsTyping: true}, typingEvents[0].Payload)
		req.Equal(event.UserTyping{JournalID: "41", UserID: "u1", IsTyping: false}, typingEvents[1].Payload)
	}
}

func TestDispatcher_Typing_Requires_Subscription(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	conn, sink := f.connect(t, "u1")
	_, partnerSink := f.connect(t, "u2", "41")

	req.NoError(f.dispatcher.Handle(context.Background(), conn, typing("41", true)))

	errs := sink.OfType(event.ErrorType)
	req.Len(errs, 1)
	req.Equal(errors.TypeNotSubscribed, errs[0].Payload.(event.Error).Type)
	req.Empty(partnerSink.OfType(event.UserTypingType))
}

func TestDispatcher_Message_Read_Is_Relayed(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	reader, readerSink := f.connect(t, "u2", "41")
	_, authorSink := f.connect(t, "u1", "41")

	req.NoError(f.dispatcher.Handle(context.Background(), reader, event.Inbound{
		Type:    event.MessageReadType,
		Payload: event.MessageRead{MessageID: "m1", JournalID: "41"},
	}))

	receipts := authorSink.OfType(event.ReadReceiptType)
	req.Len(receipts, 1)
	receipt := receipts[0].Payload.(event.ReadReceipt)
	req.Equal("m1", receipt.MessageID)
	req.Equal(domain.UserID("u2"), receipt.UserID)
	req.Empty(readerSink.OfType(event.ReadReceiptType))
}

func TestDispatcher_Broadcast_Both_Online(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	// Given U1 and U2 are both subscribed to journal 41
	_, u1 := f.connect(t, "u1", "41")
	_, u2 := f.connect(t, "u2", "41")
	f.bridge.EXPECT().NotifyOffline(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// When U1's message is committed
	f.dispatcher.BroadcastMessage(context.Background(), "41", message("m1", "u1"))

	// Then both connections get it, the author included
	for _, sink := range []*recordingSink{u1, u2} {
		messages := sink.OfType(event.NewMessageType)
		req.Len(messages, 1)
		payload := messages[0].Payload.(event.NewMessage)
		req.Equal("m1", payload.Message.ID)
		req.Equal(domain.JournalID("41"), payload.Message.JournalID)
	}
}

func TestDispatcher_Broadcast_Partner_Offline(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	// Given only U1 is subscribed
	_, u1 := f.connect(t, "u1", "41")
	_, u2 := f.connect(t, "u2")

	// Then exactly one offline notification is sent, for U2
	f.bridge.EXPECT().NotifyOffline(domain.UserID("u2"), domain.JournalID("41"), gomock.Any()).
		Do(func(_ domain.UserID, _ domain.JournalID, summary domain.PushSummary) {
			req.Equal(domain.PushNewMessage, summary.Kind)
			req.Equal(domain.UserID("u1"), summary.FromUser)
			req.Equal("hello m1", summary.Body)
		}).Times(1)

	// When U1's message is committed
	f.dispatcher.BroadcastMessage(context.Background(), "41", message("m1", "u1"))

	req.Len(u1.OfType(event.NewMessageType), 1)
	req.Empty(u2.OfType(event.NewMessageType))
}

func TestDispatcher_Broadcast_Room_Empty(t *testing.T) {
	f := newDispatcherFixture(t)
	f.bridge.EXPECT().NotifyOffline(domain.UserID("u1"), domain.JournalID("41"), gomock.Any()).Times(1)
	f.bridge.EXPECT().NotifyOffline(domain.UserID("u2"), domain.JournalID("41"), gomock.Any()).Times(1)

	f.dispatcher.BroadcastMessage(context.Background(), "41", message("m1", "u1"))
}

func TestDispatcher_Broadcast_Unknown_Journal_Skips_Fallback(t *testing.T) {
	f := newDispatcherFixture(t)
	f.bridge.EXPECT().NotifyOffline(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	f.dispatcher.BroadcastMessage(context.Background(), "999", message("m1", "u1"))
}

func TestDispatcher_Broadcast_Is_Room_Scoped(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	_, in41 := f.connect(t, "u2", "41")
	_, in42 := f.connect(t, "u3", "42")
	f.bridge.EXPECT().NotifyOffline(domain.UserID("u1"), domain.JournalID("41"), gomock.Any()).Times(1)

	f.dispatcher.BroadcastMessage(context.Background(), "41", message("m1", "u1"))

	req.Len(in41.OfType(event.NewMessageType), 1)
	req.Empty(in42.OfType(event.NewMessageType))
}

func TestDispatcher_Broadcast_Reaction_Snapshot(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	_, u1 := f.connect(t, "u1", "41")
	_, u2 := f.connect(t, "u2", "41")
	reactions := domain.Reactions{"❤️": {"u1", "u2"}}

	f.dispatcher.BroadcastReaction(context.Background(), "41", "m1", reactions)
	// The caller mutating its map afterwards does not change what was sent
	reactions["❤️"] = nil

	for _, sink := range []*recordingSink{u1, u2} {
		updates := sink.OfType(event.ReactionUpdatedType)
		req.Len(updates, 1)
		payload := updates[0].Payload.(event.ReactionUpdated)
		req.Equal("m1", payload.MessageID)
		req.Equal([]domain.UserID{"u1", "u2"}, payload.Reactions["❤️"])
	}
}

func TestDispatcher_Broadcast_Order_Is_Shared(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	_, u1 := f.connect(t, "u1", "41")
	_, u2 := f.connect(t, "u2", "41")

	// When messages are committed from several goroutines
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				f.dispatcher.BroadcastMessage(context.Background(), "41", message(fmt.Sprintf("m-%d-%d", i, j), "u1"))
			}
		}(i)
	}
	wg.Wait()

	// Then both members observe the very same sequence
	ids := func(sink *recordingSink) []string {
		return lo.Map(sink.OfType(event.NewMessageType), func(e event.Outbound, _ int) string {
			return e.Payload.(event.NewMessage).Message.ID
		})
	}
	req.Len(ids(u1), 200)
	req.Equal(ids(u1), ids(u2))
}

func TestDispatcher_Sequential_Broadcasts_Keep_Commit_Order(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	_, u2 := f.connect(t, "u2", "41")
	f.bridge.EXPECT().NotifyOffline(domain.UserID("u1"), domain.JournalID("41"), gomock.Any()).AnyTimes()

	for i := 0; i < 50; i++ {
		f.dispatcher.BroadcastMessage(context.Background(), "41", message(fmt.Sprintf("m%02d", i), "u1"))
	}

	messages := u2.OfType(event.NewMessageType)
	req.Len(messages, 50)
	for i, m := range messages {
		req.Equal(fmt.Sprintf("m%02d", i), m.Payload.(event.NewMessage).Message.ID)
	}
}

func TestDispatcher_Slow_Consumer_Is_Closed(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	slow, slowSink := f.connect(t, "u1", "41")
	_, u2 := f.connect(t, "u2", "41")
	slowSink.mu.Lock()
	slowSink.failWith = errors.ErrSlowConsumer
	slowSink.mu.Unlock()

	f.dispatcher.BroadcastMessage(context.Background(), "41", message("m1", "u2"))

	req.ErrorIs(slowSink.ClosedBy(), errors.ErrSlowConsumer)
	req.Len(u2.OfType(event.NewMessageType), 1)
	// Membership is released by the transport once the socket is gone
	f.registry.Disconnect(slow)
	req.Len(f.registry.MembersOf("41"), 1)
}

func TestDispatcher_Expired_Token_Is_Fatal(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sink := &recordingSink{}
	conn := f.registry.Connect(domain.Credential{
		Token:     "stale",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Second),
	}, sink)

	err := f.dispatcher.Handle(context.Background(), conn, subscribe("41"))

	req.ErrorIs(err, errors.ErrTokenExpired)
	errs := sink.OfType(event.ErrorType)
	req.Len(errs, 1)
	req.Equal(errors.TypeTokenExpired, errs[0].Payload.(event.Error).Type)
	req.Empty(f.registry.MembersOf("41"))
}

func TestDispatcher_Refreshed_Token_Rides_On_Reply(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sink := &recordingSink{}
	conn := f.registry.Connect(domain.Credential{
		Token:     "old",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Minute),
	}, sink)
	fresh := domain.Credential{Token: "fresh", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	f.tokens.EXPECT().Refresh(gomock.Any(), domain.UserID("u1")).Return(fresh, nil).Times(1)

	// When the credential is under the threshold
	req.NoError(f.dispatcher.Handle(context.Background(), conn, subscribe("41")))

	// Then the acknowledgement carries the new token
	acks := sink.OfType(event.JournalSubscribedType)
	req.Len(acks, 1)
	req.NotNil(acks[0].Token)
	req.Equal("fresh", acks[0].Token.Token)
	req.Equal("fresh", conn.Credential().Token)

	// And the next event does not refresh again
	req.NoError(f.dispatcher.Handle(context.Background(), conn, typing("41", true)))
	req.Empty(sink.OfType(event.TokenRefreshedType))
}

func TestDispatcher_Refreshed_Token_Without_Reply(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sink := &recordingSink{}
	conn := f.registry.Connect(domain.Credential{Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, sink)
	_, err := f.registry.Subscribe(context.Background(), conn, "41")
	req.NoError(err)
	conn.setCredential(domain.Credential{Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)})
	f.tokens.EXPECT().Refresh(gomock.Any(), domain.UserID("u1")).
		Return(domain.Credential{Token: "fresh", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	// Typing has no reply of its own
	req.NoError(f.dispatcher.Handle(context.Background(), conn, typing("41", true)))

	refreshed := sink.OfType(event.TokenRefreshedType)
	req.Len(refreshed, 1)
	req.Equal("fresh", refreshed[0].Payload.(*event.TokenRefreshed).Token)
}

func TestDispatcher_Unknown_Event(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	conn, sink := f.connect(t, "u1")

	req.NoError(f.dispatcher.Handle(context.Background(), conn, event.Inbound{Type: "dance"}))

	errs := sink.OfType(event.ErrorType)
	req.Len(errs, 1)
	req.Equal(errors.TypeInvalidEvent, errs[0].Payload.(event.Error).Type)
}

func TestDispatcher_Reject(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	conn, sink := f.connect(t, "u1")

	_, decodeErr := event.Decode([]byte(`{"event":`))
	req.NoError(f.dispatcher.Reject(context.Background(), conn, decodeErr))

	errs := sink.OfType(event.ErrorType)
	req.Len(errs, 1)
	req.Equal(errors.TypeInvalidEvent, errs[0].Payload.(event.Error).Type)
	req.Nil(sink.ClosedBy())
}

func TestDispatcher_Reject_Checks_Token(t *testing.T) {
	t.Run("should be fatal once the token expired", func(t *testing.T) {
		req := require.New(t)
		f := newDispatcherFixture(t)
		sink := &recordingSink{}
		conn := f.registry.Connect(domain.Credential{Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(-time.Second)}, sink)

		// When an expired connection keeps sending garbage
		_, decodeErr := event.Decode([]byte(`not json`))
		err := f.dispatcher.Reject(context.Background(), conn, decodeErr)

		// Then the error is connection-fatal and reported as token_expired
		req.ErrorIs(err, errors.ErrTokenExpired)
		errs := sink.OfType(event.ErrorType)
		req.Len(errs, 1)
		req.Equal(errors.TypeTokenExpired, errs[0].Payload.(event.Error).Type)
	})

	t.Run("should attach a refreshed token to the error reply", func(t *testing.T) {
		req := require.New(t)
		f := newDispatcherFixture(t)
		sink := &recordingSink{}
		conn := f.registry.Connect(domain.Credential{Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}, sink)
		f.tokens.EXPECT().Refresh(gomock.Any(), domain.UserID("u1")).
			Return(domain.Credential{Token: "fresh", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil)

		_, decodeErr := event.Decode([]byte(`{"event":`))
		req.NoError(f.dispatcher.Reject(context.Background(), conn, decodeErr))

		errs := sink.OfType(event.ErrorType)
		req.Len(errs, 1)
		req.NotNil(errs[0].Token)
		req.Equal("fresh", errs[0].Token.Token)
		req.Empty(sink.OfType(event.TokenRefreshedType))
	})
}

func TestDispatcher_ApplyPairing_Stops_Traffic_To_Former_Participant(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	var mu sync.Mutex
	current := domain.Participants{UserA: "u1", UserB: "u2"}
	pairing := mocks.NewMockIPairingService(ctrl)
	pairing.EXPECT().ParticipantsOf(gomock.Any(), domain.JournalID("41")).
		DoAndReturn(func(_ context.Context, _ domain.JournalID) (domain.Participants, error) {
			mu.Lock()
			defer mu.Unlock()
			return current, nil
		}).AnyTimes()
	bridge := mocks.NewMockIOfflineBridge(ctrl)
	registry := newTestRegistry(t, pairing, testRegistryConfig())
	monitor := NewTokenMonitor(testLogger(), mocks.NewMockITokenService(ctrl), 5*time.Minute, time.Second)
	f := dispatcherFixture{registry: registry, dispatcher: NewDispatcher(testLogger(), registry, monitor, bridge), bridge: bridge}

	// Given u1 and u2 are subscribed to journal 41
	u1, u1Sink := f.connect(t, "u1", "41")
	u2, u2Sink := f.connect(t, "u2", "41")

	// When the pairing service re-pairs the journal with u3
	mu.Lock()
	current = domain.Participants{UserA: "u1", UserB: "u3"}
	mu.Unlock()
	f.dispatcher.ApplyPairing("41", current)

	// Then u2 is told it lost access
	errs := u2Sink.OfType(event.ErrorType)
	req.Len(errs, 1)
	req.Equal(errors.TypeForbidden, errs[0].Payload.(event.Error).Type)
	req.Len(u2Sink.OfType(event.JournalUnsubscribedType), 1)

	// And no further journal traffic reaches u2, while u3 is pushed as absent
	f.bridge.EXPECT().NotifyOffline(domain.UserID("u3"), domain.JournalID("41"), gomock.Any()).Times(2)
	f.dispatcher.BroadcastMessage(context.Background(), "41", message("m1", "u1"))
	f.dispatcher.BroadcastReaction(context.Background(), "41", "m1", domain.Reactions{"❤️": {"u1"}})
	req.NoError(f.dispatcher.Handle(context.Background(), u1, typing("41", true)))

	req.Empty(u2Sink.OfType(event.NewMessageType))
	req.Empty(u2Sink.OfType(event.ReactionUpdatedType))
	req.Empty(u2Sink.OfType(event.UserTypingType))
	req.Len(u1Sink.OfType(event.NewMessageType), 1)

	// And typing from u2 is refused
	req.NoError(f.dispatcher.Handle(context.Background(), u2, typing("41", true)))
	req.Equal(errors.TypeNotSubscribed, u2Sink.OfType(event.ErrorType)[1].Payload.(event.Error).Type)
}
