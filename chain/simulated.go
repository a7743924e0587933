package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/ethereum/go-ethereum/crypto"
)

// SimulatedSubmitter accepts every transfer and returns a deterministic hash.
// Chains without a live client use it, and tests inject failures through it.
type SimulatedSubmitter struct {
	chain models.Chain

	mu    sync.Mutex
	count uint64
	fail  error
}

func NewSimulatedSubmitter(chain models.Chain) *SimulatedSubmitter {
	return &SimulatedSubmitter{chain: chain}
}

// SetFailure makes every following Submit return err. A nil err clears it.
func (s *SimulatedSubmitter) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *SimulatedSubmitter) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *SimulatedSubmitter) Submit(ctx context.Context, transfer Transfer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if transfer.To == "" {
		return "", fmt.Errorf("%w: empty recipient", common.ErrInvalidAddress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.count++

	seed := fmt.Sprintf("%s:%s:%s:%s:%d", s.chain, transfer.To, transfer.AssetAddress, transfer.Amount, s.count)
	return crypto.Keccak256Hash([]byte(seed)).Hex(), nil
}
