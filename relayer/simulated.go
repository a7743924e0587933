package relayer

import (
	"context"
	"fmt"
	"time"

	"github.com/dan13ram/xbridge-engine/models"
	"github.com/ethereum/go-ethereum/crypto"
)

var simulatedProgression = []models.Phase{
	models.PhaseSourceSubmitted,
	models.PhaseSourceConfirmed,
	models.PhaseBridgeProcessing,
	models.PhaseTargetSubmitted,
	models.PhaseCompleted,
}

// SimulatedQuerier advances a transfer one phase per step since it was created.
type SimulatedQuerier struct {
	step time.Duration
	now  func() time.Time
}

func NewSimulatedQuerier(step time.Duration) *SimulatedQuerier {
	return &SimulatedQuerier{step: step, now: time.Now}
}

func (q *SimulatedQuerier) WithClock(now func() time.Time) *SimulatedQuerier {
	q.now = now
	return q
}

func simulatedTargetRef(tx *models.BridgeTransaction) string {
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("%s:%s:target", tx.Id, tx.TargetChain))).Hex()
}

func (q *SimulatedQuerier) QueryPhase(ctx context.Context, tx *models.BridgeTransaction) (*PhaseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx.Phase.IsTerminal() || tx.SourceTxRef == "" {
		return &PhaseResult{Phase: tx.Phase}, nil
	}

	steps := 0
	if q.step > 0 {
		steps = int(q.now().Sub(tx.CreatedAt) / q.step)
	}
	if steps < 0 {
		steps = 0
	}
	if steps >= len(simulatedProgression) {
		steps = len(simulatedProgression) - 1
	}

	result := &PhaseResult{Phase: simulatedProgression[steps]}
	if result.Phase.Rank() >= models.PhaseTargetSubmitted.Rank() {
		result.TargetTxRef = simulatedTargetRef(tx)
	}
	result.Message = fmt.Sprintf("simulated %s", result.Phase)
	return result, nil
}
