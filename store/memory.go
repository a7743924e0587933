package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
)

type record struct {
	mu sync.Mutex
	tx *models.BridgeTransaction
}

// MemoryStore keeps records in an append-only arena with id and address indexes.
// The store lock guards the indexes only. Each record has its own lock,
// so updates to different ids never wait on each other.
type MemoryStore struct {
	mu        sync.RWMutex
	records   []*record
	byId      map[string]int
	byAddress map[string][]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byId:      make(map[string]int),
		byAddress: make(map[string][]int),
	}
}

func addressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func (s *MemoryStore) Create(ctx context.Context, tx *models.BridgeTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx == nil || tx.Id == "" {
		return fmt.Errorf("transaction id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byId[tx.Id]; ok {
		return fmt.Errorf("%w: %s", common.ErrDuplicateId, tx.Id)
	}

	idx := len(s.records)
	s.records = append(s.records, &record{tx: tx.Clone()})
	s.byId[tx.Id] = idx

	from, to := addressKey(tx.FromAddress), addressKey(tx.ToAddress)
	if from != "" {
		s.byAddress[from] = append(s.byAddress[from], idx)
	}
	if to != "" && to != from {
		s.byAddress[to] = append(s.byAddress[to], idx)
	}
	return nil
}

func (s *MemoryStore) lookup(id string) (*record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byId[id]
	if !ok {
		return nil, false
	}
	return s.records[idx], true
}

func (r *record) snapshot() *models.BridgeTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tx.Clone()
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.BridgeTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, id)
	}
	return rec.snapshot(), nil
}

func (s *MemoryStore) ListByAddress(ctx context.Context, address string) ([]*models.BridgeTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	indexes := s.byAddress[addressKey(address)]
	recs := make([]*record, 0, len(indexes))
	for _, idx := range indexes {
		recs = append(recs, s.records[idx])
	}
	s.mu.RUnlock()

	txs := make([]*models.BridgeTransaction, 0, len(recs))
	for _, rec := range recs {
		txs = append(txs, rec.snapshot())
	}
	return txs, nil
}

func (s *MemoryStore) List(ctx context.Context, phases ...models.Phase) ([]*models.BridgeTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	recs := make([]*record, len(s.records))
	copy(recs, s.records)
	s.mu.RUnlock()

	txs := make([]*models.BridgeTransaction, 0, len(recs))
	for _, rec := range recs {
		tx := rec.snapshot()
		if len(phases) > 0 && !hasPhase(phases, tx.Phase) {
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func hasPhase(phases []models.Phase, phase models.Phase) bool {
	for _, p := range phases {
		if p == phase {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.BridgeTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, id)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.tx.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if next.Id != rec.tx.Id || next.FromAddress != rec.tx.FromAddress || next.ToAddress != rec.tx.ToAddress {
		return nil, fmt.Errorf("update of %s changed an indexed field", id)
	}
	rec.tx = next
	return next.Clone(), nil
}
