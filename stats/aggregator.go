package stats

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dan13ram/xbridge-engine/metrics"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type path struct {
	source models.Chain
	target models.Chain
}

func (p path) String() string {
	return fmt.Sprintf("%s->%s", p.source, p.target)
}

// Aggregator folds terminal transactions into process-wide running stats.
// Each transaction id is counted at most once.
type Aggregator struct {
	mu       sync.Mutex
	topPaths int
	metrics  *metrics.Metrics

	seen       map[string]struct{}
	total      int64
	completed  int64
	failed     int64
	refunded   int64
	volumes    map[string]decimal.Decimal
	avgSeconds float64
	paths      map[path]int64
}

func NewAggregator(topPaths int, m *metrics.Metrics) *Aggregator {
	if topPaths <= 0 {
		topPaths = 5
	}
	return &Aggregator{
		topPaths: topPaths,
		metrics:  m,
		seen:     make(map[string]struct{}),
		volumes:  make(map[string]decimal.Decimal),
		paths:    make(map[path]int64),
	}
}

// HandleEvent folds terminal events and ignores phase changes.
func (a *Aggregator) HandleEvent(event models.Event) {
	switch event.Type() {
	case models.EventCompleted, models.EventFailed, models.EventRefunded:
		a.OnTerminalEvent(event.Transaction())
	}
}

// OnTerminalEvent reports whether tx was folded in. Non-terminal, malformed and
// already counted transactions are ignored.
func (a *Aggregator) OnTerminalEvent(tx *models.BridgeTransaction) bool {
	if tx == nil || tx.Id == "" || !tx.Phase.IsTerminal() {
		log.Debug("[STATS] Ignoring non-terminal or malformed transaction")
		return false
	}
	logger := log.WithField("transaction_id", tx.Id)

	var amount decimal.Decimal
	if tx.Phase == models.PhaseCompleted {
		var err error
		amount, err = decimal.NewFromString(tx.Amount)
		if err != nil || tx.Asset == "" {
			logger.WithField("amount", tx.Amount).Warn("[STATS] Ignoring completed transaction with malformed amount")
			return false
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[tx.Id]; ok {
		logger.Debug("[STATS] Transaction already counted")
		return false
	}
	a.seen[tx.Id] = struct{}{}

	a.total++
	switch tx.Phase {
	case models.PhaseCompleted:
		a.completed++
		a.volumes[tx.Asset] = a.volumes[tx.Asset].Add(amount)

		duration := tx.UpdatedAt.Sub(tx.CreatedAt).Seconds()
		if duration < 0 {
			duration = 0
		}
		n := float64(a.completed)
		a.avgSeconds = (a.avgSeconds*(n-1) + duration) / n
	case models.PhaseFailed:
		a.failed++
	case models.PhaseRefunded:
		a.refunded++
	}
	a.paths[path{source: tx.SourceChain, target: tx.TargetChain}]++

	a.metrics.ObserveTerminal(tx)
	logger.WithField("phase", tx.Phase).Debug("[STATS] Folded terminal transaction")
	return true
}

// GetStats returns a snapshot. The caller owns the returned maps and slices.
func (a *Aggregator) GetStats() models.RunningStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	volumes := make(map[string]string, len(a.volumes))
	for asset, v := range a.volumes {
		volumes[asset] = v.String()
	}

	paths := make([]path, 0, len(a.paths))
	for p := range a.paths {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		ci, cj := a.paths[paths[i]], a.paths[paths[j]]
		if ci != cj {
			return ci > cj
		}
		return paths[i].String() < paths[j].String()
	})
	if len(paths) > a.topPaths {
		paths = paths[:a.topPaths]
	}

	top := make([]models.PathCount, 0, len(paths))
	for _, p := range paths {
		top = append(top, models.PathCount{
			SourceChain: p.source,
			TargetChain: p.target,
			Count:       a.paths[p],
		})
	}

	return models.RunningStats{
		TotalCount:               a.total,
		CompletedCount:           a.completed,
		FailedCount:              a.failed,
		RefundedCount:            a.refunded,
		VolumeByAsset:            volumes,
		AverageCompletionSeconds: a.avgSeconds,
		TopPaths:                 top,
	}
}
