//go:generate go run go.uber.org/mock/mockgen -source=pairing_repository.go -destination=../../mocks/mock_pairing_repository.go -package=mocks
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"journal-live/domain"
	"journal-live/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

const pairingPrefix = "pairing:"

type IPairingRepository interface {
	Upsert(ctx context.Context, journalID domain.JournalID, participants domain.Participants) error
	ParticipantsOf(ctx context.Context, journalID domain.JournalID) (domain.Participants, error)
	List(ctx context.Context) ([]domain.Pairing, error)
}

// PairingRepository keeps the participants of every journal, as pushed by the
// pairing service. Values are CBOR encoded.
type PairingRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewPairingRepository(db *badger.DB, log *slog.Logger) *PairingRepository {
	return &PairingRepository{db: db, log: log, now: time.Now}
}

// Upsert stores or replaces the pairing of a journal.
func (p PairingRepository) Upsert(ctx context.Context, journalID domain.JournalID, participants domain.Participants) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if journalID == "" {
		return fmt.Errorf("%w: empty journal id", errors.ErrInvalidPairing)
	}
	if err := participants.Validate(); err != nil {
		return err
	}
	data, err := cbor.Marshal(domain.Pairing{
		JournalID:    journalID,
		Participants: participants,
		UpdatedAt:    p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal pairing: %w", err)
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pairingKey(journalID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store pairing of journal %s: %w", journalID, err)
	}
	p.log.Debug("Pairing stored", "journal_id", journalID)
	return nil
}

// ParticipantsOf returns ErrPairingNotFound for an unknown journal.
func (p PairingRepository) ParticipantsOf(ctx context.Context, journalID domain.JournalID) (domain.Participants, error) {
	if err := ctx.Err(); err != nil {
		return domain.Participants{}, err
	}
	var pairing domain.Pairing
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairingKey(journalID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return cbor.Unmarshal(v, &pairing)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Participants{}, fmt.Errorf("%w: journal %s", errors.ErrPairingNotFound, journalID)
	}
	if err != nil {
		return domain.Participants{}, fmt.Errorf("failed to read pairing of journal %s: %w", journalID, err)
	}
	return pairing.Participants, nil
}

// List returns every stored pairing ordered by journal id.
func (p PairingRepository) List(ctx context.Context) ([]domain.Pairing, error) {
	var pairings []domain.Pairing
	prefix := []byte(pairingPrefix)
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(v []byte) error {
				var pairing domain.Pairing
				if err := cbor.Unmarshal(v, &pairing); err != nil {
					return fmt.Errorf("failed to unmarshal pairing: %w", err)
				}
				pairings = append(pairings, pairing)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error during pairing listing: %w", err)
	}
	return pairings, nil
}

func pairingKey(journalID domain.JournalID) []byte {
	return []byte(pairingPrefix + journalID.String())
}
