package models

import (
	"time"
)

const (
	CollectionTransactions = "bridge_transactions"
)

type Phase string

const (
	PhasePending          Phase = "PENDING"
	PhaseSourceSubmitted  Phase = "SOURCE_SUBMITTED"
	PhaseSourceConfirmed  Phase = "SOURCE_CONFIRMED"
	PhaseBridgeProcessing Phase = "BRIDGE_PROCESSING"
	PhaseTargetSubmitted  Phase = "TARGET_SUBMITTED"
	PhaseCompleted        Phase = "COMPLETED"
	PhaseFailed           Phase = "FAILED"
	PhaseRefunded         Phase = "REFUNDED"
)

var phaseRanks = map[Phase]int{
	PhasePending:          0,
	PhaseSourceSubmitted:  1,
	PhaseSourceConfirmed:  2,
	PhaseBridgeProcessing: 3,
	PhaseTargetSubmitted:  4,
	PhaseCompleted:        5,
	PhaseFailed:           5,
	PhaseRefunded:         5,
}

func (p Phase) IsValid() bool {
	_, ok := phaseRanks[p]
	return ok
}

// IsTerminal reports whether no further transitions can leave p.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseRefunded
}

// Rank is the position of p in the linear lifecycle. All terminal phases share the last rank.
func (p Phase) Rank() int {
	rank, ok := phaseRanks[p]
	if !ok {
		return -1
	}
	return rank
}

type StatusEntry struct {
	Phase     Phase     `bson:"phase" json:"phase"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Message   string    `bson:"message" json:"message"`
}

type FeeBreakdown struct {
	SourceFee                string `bson:"source_fee" json:"source_fee"`
	BridgeFee                string `bson:"bridge_fee" json:"bridge_fee"`
	TargetFee                string `bson:"target_fee" json:"target_fee"`
	Total                    string `bson:"total" json:"total"`
	Currency                 string `bson:"currency" json:"currency"`
	EstimatedDurationSeconds int64  `bson:"estimated_duration_seconds" json:"estimated_duration_seconds"`
	Stale                    bool   `bson:"stale" json:"stale"`
}

type BridgeTransaction struct {
	Id                    string        `bson:"_id" json:"id"`
	SourceChain           Chain         `bson:"source_chain" json:"source_chain"`
	TargetChain           Chain         `bson:"target_chain" json:"target_chain"`
	FromAddress           string        `bson:"from_address" json:"from_address"`
	ToAddress             string        `bson:"to_address" json:"to_address"`
	Asset                 string        `bson:"asset" json:"asset"`
	Amount                string        `bson:"amount" json:"amount"`
	BridgeProvider        Provider      `bson:"bridge_provider" json:"bridge_provider"`
	SourceTxRef           string        `bson:"source_tx_ref,omitempty" json:"source_tx_ref,omitempty"`
	TargetTxRef           string        `bson:"target_tx_ref,omitempty" json:"target_tx_ref,omitempty"`
	Phase                 Phase         `bson:"phase" json:"phase"`
	Fees                  FeeBreakdown  `bson:"fees" json:"fees"`
	CreatedAt             time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time     `bson:"updated_at" json:"updated_at"`
	EstimatedCompletionAt time.Time     `bson:"estimated_completion_at" json:"estimated_completion_at"`
	StatusHistory         []StatusEntry `bson:"status_history" json:"status_history"`
}

// AppendStatus moves the transaction to phase and records it in the history.
// Timestamps never go backwards, so the history stays ordered even with clock skew.
func (tx *BridgeTransaction) AppendStatus(phase Phase, at time.Time, message string) {
	if n := len(tx.StatusHistory); n > 0 && at.Before(tx.StatusHistory[n-1].Timestamp) {
		at = tx.StatusHistory[n-1].Timestamp
	}
	tx.StatusHistory = append(tx.StatusHistory, StatusEntry{
		Phase:     phase,
		Timestamp: at,
		Message:   message,
	})
	tx.Phase = phase
	tx.UpdatedAt = at
}

func (tx *BridgeTransaction) Clone() *BridgeTransaction {
	if tx == nil {
		return nil
	}
	c := *tx
	c.StatusHistory = make([]StatusEntry, len(tx.StatusHistory))
	copy(c.StatusHistory, tx.StatusHistory)
	return &c
}

// TransferRequest is what a caller hands to the orchestrator.
type TransferRequest struct {
	SourceChain    Chain    `json:"source_chain"`
	TargetChain    Chain    `json:"target_chain"`
	Asset          string   `json:"asset"`
	Amount         string   `json:"amount"`
	FromCredential string   `json:"from_credential"`
	FromAddress    string   `json:"from_address,omitempty"`
	ToAddress      string   `json:"to_address"`
	BridgeProvider Provider `json:"bridge_provider,omitempty"`
}
