package store

import (
	"context"

	"github.com/dan13ram/xbridge-engine/models"
)

// UpdateFunc mutates a private copy of a record. Returning an error discards the copy.
type UpdateFunc func(tx *models.BridgeTransaction) error

// TransactionStore persists bridge transactions. Every method returns copies,
// so callers never share state with the store or with each other.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.BridgeTransaction) error
	Get(ctx context.Context, id string) (*models.BridgeTransaction, error)
	ListByAddress(ctx context.Context, address string) ([]*models.BridgeTransaction, error)
	// List returns records in any of phases, or every record when phases is empty.
	List(ctx context.Context, phases ...models.Phase) ([]*models.BridgeTransaction, error)
	// Update applies fn atomically to the record with id and returns the stored result.
	Update(ctx context.Context, id string, fn UpdateFunc) (*models.BridgeTransaction, error)
}

// NonTerminalPhases are the phases a monitor still has to poll.
var NonTerminalPhases = []models.Phase{
	models.PhasePending,
	models.PhaseSourceSubmitted,
	models.PhaseSourceConfirmed,
	models.PhaseBridgeProcessing,
	models.PhaseTargetSubmitted,
}
