package relayer

import (
	"context"
	"sync"

	"github.com/dan13ram/xbridge-engine/models"
)

// PhaseResult is what a relayer reports about one transfer.
type PhaseResult struct {
	Phase       models.Phase
	TargetTxRef string
	Message     string
}

// PhaseQuerier asks a bridge provider where a transfer currently is.
type PhaseQuerier interface {
	QueryPhase(ctx context.Context, tx *models.BridgeTransaction) (*PhaseResult, error)
}

// QuerierFunc adapts a function to PhaseQuerier.
type QuerierFunc func(ctx context.Context, tx *models.BridgeTransaction) (*PhaseResult, error)

func (f QuerierFunc) QueryPhase(ctx context.Context, tx *models.BridgeTransaction) (*PhaseResult, error) {
	return f(ctx, tx)
}

// Registry selects the querier for a transfer's bridge provider.
type Registry struct {
	mu       sync.RWMutex
	queriers map[models.Provider]PhaseQuerier
}

func NewRegistry() *Registry {
	return &Registry{queriers: make(map[models.Provider]PhaseQuerier)}
}

func (r *Registry) Register(provider models.Provider, querier PhaseQuerier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queriers[provider] = querier
}

func (r *Registry) Get(provider models.Provider) (PhaseQuerier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queriers[provider]
	return q, ok
}
