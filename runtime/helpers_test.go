package runtime

import (
	"context"
	"journal-live/domain"
	"journal-live/domain/event"
	"journal-live/errors"
	"journal-live/mocks"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingSink keeps every delivered event in order.
type recordingSink struct {
	mu       sync.Mutex
	events   []event.Outbound
	closedBy error
	failWith error
}

func (s *recordingSink) Deliver(e event.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closedBy = reason
}

func (s *recordingSink) Events() []event.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Outbound(nil), s.events...)
}

func (s *recordingSink) OfType(t event.Type) []event.Outbound {
	return lo.Filter(s.Events(), func(e event.Outbound, _ int) bool { return e.Type == t })
}

func (s *recordingSink) ClosedBy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedBy
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func testRegistryConfig() RegistryConfig {
	return RegistryConfig{ParticipantsTTL: time.Minute, PairingTimeout: time.Second, MaxCachedJournals: 100}
}

func newTestRegistry(t *testing.T, pairing *mocks.MockIPairingService, config RegistryConfig) *Registry {
	registry, err := NewRegistry(testLogger(), pairing, config)
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	return registry
}

// pairedJournals answers for journal 41 (u1, u2) and 42 (u1, u3); anything else is unknown.
func pairedJournals(pairing *mocks.MockIPairingService) {
	pairing.EXPECT().ParticipantsOf(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, journalID domain.JournalID) (domain.Participants, error) {
			switch journalID {
			case "41":
				return domain.Participants{UserA: "u1", UserB: "u2"}, nil
			case "42":
				return domain.Participants{UserA: "u1", UserB: "u3"}, nil
			}
			return domain.Participants{}, errors.ErrPairingNotFound
		}).AnyTimes()
}

func credentialFor(userID domain.UserID) domain.Credential {
	return domain.Credential{Token: "token-" + userID.String(), UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
}
