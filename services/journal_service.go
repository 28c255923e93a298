//go:generate go run go.uber.org/mock/mockgen -source=journal_service.go -destination=../mocks/mock_journal_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"journal-live/domain"
	"journal-live/errors"
	"journal-live/infrastructure/storage"
	"journal-live/runtime"

	"github.com/go-playground/validator/v10"
)

// IJournalService is what the message store and the pairing service call after
// they committed a change.
type IJournalService interface {
	BroadcastMessage(ctx context.Context, journalID domain.JournalID, message domain.Message) error
	BroadcastReaction(ctx context.Context, journalID domain.JournalID, messageID string, reactions domain.Reactions) error
	SetParticipants(ctx context.Context, journalID domain.JournalID, participants domain.Participants) error
	Participants(ctx context.Context, journalID domain.JournalID) (domain.Participants, error)
	Pairings(ctx context.Context) ([]domain.Pairing, error)
	Stats() domain.LiveStats
}

type JournalService struct {
	orchestrator *runtime.Orchestrator
	pairings     storage.IPairingRepository
	validate     *validator.Validate
}

func NewJournalService(o *runtime.Orchestrator, pairings storage.IPairingRepository) IJournalService {
	return &JournalService{orchestrator: o, pairings: pairings, validate: validator.New()}
}

// BroadcastMessage relays a message the store already persisted.
func (s *JournalService) BroadcastMessage(ctx context.Context, journalID domain.JournalID, message domain.Message) error {
	if journalID == "" {
		return fmt.Errorf("%w: empty journal id", errors.ErrInvalidEvent)
	}
	if err := s.validate.Struct(message); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	s.orchestrator.Dispatcher().BroadcastMessage(ctx, journalID, message)
	return nil
}

func (s *JournalService) BroadcastReaction(ctx context.Context, journalID domain.JournalID, messageID string, reactions domain.Reactions) error {
	if journalID == "" || messageID == "" {
		return fmt.Errorf("%w: journal and message ids are required", errors.ErrInvalidEvent)
	}
	s.orchestrator.Dispatcher().BroadcastReaction(ctx, journalID, messageID, reactions)
	return nil
}

// SetParticipants stores a new pairing, drops the cached one and removes from
// the live room anyone who is no longer a participant.
func (s *JournalService) SetParticipants(ctx context.Context, journalID domain.JournalID, participants domain.Participants) error {
	if err := s.pairings.Upsert(ctx, journalID, participants); err != nil {
		return err
	}
	s.orchestrator.Dispatcher().ApplyPairing(journalID, participants)
	return nil
}

func (s *JournalService) Participants(ctx context.Context, journalID domain.JournalID) (domain.Participants, error) {
	return s.pairings.ParticipantsOf(ctx, journalID)
}

func (s *JournalService) Pairings(ctx context.Context) ([]domain.Pairing, error) {
	return s.pairings.List(ctx)
}

func (s *JournalService) Stats() domain.LiveStats {
	return s.orchestrator.Registry().Stats()
}
