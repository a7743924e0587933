package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/events"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/dan13ram/xbridge-engine/relayer"
	"github.com/dan13ram/xbridge-engine/store"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetOutput(io.Discard)
}

const tick = 20 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) HandleEvent(event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type())
	}
	return types
}

// scriptedQuerier answers the nth call with script(n), counting from 1.
type scriptedQuerier struct {
	calls  atomic.Int64
	script func(n int64) (*relayer.PhaseResult, error)
}

func (q *scriptedQuerier) QueryPhase(ctx context.Context, tx *models.BridgeTransaction) (*relayer.PhaseResult, error) {
	return q.script(q.calls.Add(1))
}

type fixture struct {
	store    *store.MemoryStore
	querier  *scriptedQuerier
	recorder *recorder
	monitor  *TransactionMonitor
}

func newFixture(t *testing.T, script func(n int64) (*relayer.PhaseResult, error)) *fixture {
	f := &fixture{
		store:    store.NewMemoryStore(),
		querier:  &scriptedQuerier{script: script},
		recorder: &recorder{},
	}
	queriers := relayer.NewRegistry()
	queriers.Register(models.ProviderWormhole, f.querier)

	bus := events.NewBus()
	bus.Subscribe("recorder", f.recorder)

	f.monitor = NewTransactionMonitor(f.store, queriers, bus, Options{
		Interval:             tick,
		QueryTimeout:         time.Second,
		StoreTimeout:         time.Second,
		FailureWarnThreshold: 2,
	})
	t.Cleanup(f.monitor.Stop)
	return f
}

func (f *fixture) createSubmitted(t *testing.T, id string) {
	now := time.Now()
	tx := &models.BridgeTransaction{
		Id:             id,
		SourceChain:    models.ChainEthereum,
		TargetChain:    models.ChainSolana,
		FromAddress:    "0xfrom",
		ToAddress:      "sol-to",
		Asset:          "USDC",
		Amount:         "100",
		BridgeProvider: models.ProviderWormhole,
		SourceTxRef:    "0xsource",
		CreatedAt:      now,
	}
	tx.AppendStatus(models.PhasePending, now, "created")
	tx.AppendStatus(models.PhaseSourceSubmitted, now, "submitted")
	require.NoError(t, f.store.Create(context.Background(), tx))
}

func (f *fixture) get(t *testing.T, id string) *models.BridgeTransaction {
	tx, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return tx
}

func phases(results ...models.Phase) func(n int64) (*relayer.PhaseResult, error) {
	return func(n int64) (*relayer.PhaseResult, error) {
		i := int(n) - 1
		if i >= len(results) {
			i = len(results) - 1
		}
		return &relayer.PhaseResult{Phase: results[i]}, nil
	}
}

func TestMonitorProgressesToCompletion(t *testing.T) {
	f := newFixture(t, phases(
		models.PhaseSourceConfirmed,
		models.PhaseBridgeProcessing,
		models.PhaseTargetSubmitted,
		models.PhaseCompleted,
	))
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return !f.monitor.IsMonitoring("tx-1") }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(5 * tick)

	assert.Equal(t, int64(4), f.querier.calls.Load())

	tx := f.get(t, "tx-1")
	assert.Equal(t, models.PhaseCompleted, tx.Phase)
	require.Len(t, tx.StatusHistory, 2+4)
	assert.Equal(t, []models.Phase{
		models.PhasePending,
		models.PhaseSourceSubmitted,
		models.PhaseSourceConfirmed,
		models.PhaseBridgeProcessing,
		models.PhaseTargetSubmitted,
		models.PhaseCompleted,
	}, historyPhases(tx))
	for i := 1; i < len(tx.StatusHistory); i++ {
		assert.False(t, tx.StatusHistory[i].Timestamp.Before(tx.StatusHistory[i-1].Timestamp))
	}

	assert.Equal(t, []models.EventType{
		models.EventPhaseChanged,
		models.EventPhaseChanged,
		models.EventPhaseChanged,
		models.EventPhaseChanged,
		models.EventCompleted,
	}, f.recorder.types())

	f.recorder.mu.Lock()
	changed := f.recorder.events[0].(models.PhaseChanged)
	f.recorder.mu.Unlock()
	assert.Equal(t, models.PhaseSourceSubmitted, changed.PreviousPhase)
	assert.Equal(t, models.PhaseSourceConfirmed, changed.NewPhase)
}

func historyPhases(tx *models.BridgeTransaction) []models.Phase {
	out := make([]models.Phase, 0, len(tx.StatusHistory))
	for _, e := range tx.StatusHistory {
		out = append(out, e.Phase)
	}
	return out
}

func TestMonitorQueryErrorKeepsMonitoring(t *testing.T) {
	f := newFixture(t, func(n int64) (*relayer.PhaseResult, error) {
		if n == 1 {
			return nil, errors.New("relayer unreachable")
		}
		return &relayer.PhaseResult{Phase: models.PhaseSourceSubmitted}, nil
	})
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return f.querier.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	tx := f.get(t, "tx-1")
	assert.Len(t, tx.StatusHistory, 2)
	assert.Equal(t, models.PhaseSourceSubmitted, tx.Phase)
	assert.True(t, f.monitor.IsMonitoring("tx-1"))
	assert.Empty(t, f.recorder.types())
}

func TestMonitorRepeatedFailuresNeverTerminate(t *testing.T) {
	f := newFixture(t, func(n int64) (*relayer.PhaseResult, error) {
		return nil, context.DeadlineExceeded
	})
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return f.querier.calls.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)

	assert.True(t, f.monitor.IsMonitoring("tx-1"))
	assert.Equal(t, models.PhaseSourceSubmitted, f.get(t, "tx-1").Phase)
	assert.GreaterOrEqual(t, f.monitor.Health().ConsecutiveFailures, 4)
}

func TestStartMonitoringIdempotent(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceSubmitted))
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)
	f.monitor.mu.Lock()
	first := f.monitor.registrations["tx-1"]
	f.monitor.mu.Unlock()

	f.monitor.StartMonitoring("tx-1", tick)

	f.monitor.mu.Lock()
	defer f.monitor.mu.Unlock()
	assert.Len(t, f.monitor.registrations, 1)
	assert.Same(t, first, f.monitor.registrations["tx-1"])
	assert.Equal(t, uint64(1), f.monitor.nextGeneration)
}

func TestStopMonitoring(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceSubmitted))
	f.createSubmitted(t, "tx-1")

	f.monitor.StopMonitoring("unknown")

	f.monitor.StartMonitoring("tx-1", tick)
	assert.Eventually(t, func() bool { return f.querier.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	f.monitor.StopMonitoring("tx-1")
	assert.False(t, f.monitor.IsMonitoring("tx-1"))

	time.Sleep(2 * tick)
	calls := f.querier.calls.Load()
	time.Sleep(5 * tick)
	assert.Equal(t, calls, f.querier.calls.Load())
}

func TestLateTickIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f := newFixture(t, func(n int64) (*relayer.PhaseResult, error) {
		once.Do(func() { close(entered) })
		<-release
		return &relayer.PhaseResult{Phase: models.PhaseSourceConfirmed}, nil
	})
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)
	<-entered
	f.monitor.StopMonitoring("tx-1")
	close(release)

	time.Sleep(5 * tick)

	tx := f.get(t, "tx-1")
	assert.Equal(t, models.PhaseSourceSubmitted, tx.Phase)
	assert.Len(t, tx.StatusHistory, 2)
	assert.Empty(t, f.recorder.types())
}

func TestReplacedRegistrationDiscardsOldTick(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(n int64) (*relayer.PhaseResult, error) {
		if n == 1 {
			close(entered)
			<-release
			return &relayer.PhaseResult{Phase: models.PhaseCompleted}, nil
		}
		return &relayer.PhaseResult{Phase: models.PhaseSourceSubmitted}, nil
	})
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)
	<-entered
	f.monitor.StopMonitoring("tx-1")
	f.monitor.StartMonitoring("tx-1", tick)
	close(release)

	assert.Eventually(t, func() bool { return f.querier.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, models.PhaseSourceSubmitted, f.get(t, "tx-1").Phase)
	assert.True(t, f.monitor.IsMonitoring("tx-1"))
}

func TestMonitorIgnoresBackwardsPhase(t *testing.T) {
	f := newFixture(t, phases(models.PhaseBridgeProcessing, models.PhaseSourceConfirmed))
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return f.querier.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	tx := f.get(t, "tx-1")
	assert.Equal(t, models.PhaseBridgeProcessing, tx.Phase)
	assert.Len(t, tx.StatusHistory, 3)
	assert.True(t, f.monitor.IsMonitoring("tx-1"))
}

func TestMonitorFailedTerminal(t *testing.T) {
	f := newFixture(t, func(n int64) (*relayer.PhaseResult, error) {
		return &relayer.PhaseResult{Phase: models.PhaseFailed, Message: "target reverted"}, nil
	})
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return !f.monitor.IsMonitoring("tx-1") }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []models.EventType{models.EventPhaseChanged, models.EventFailed}, f.recorder.types())
	f.recorder.mu.Lock()
	failed := f.recorder.events[1].(models.Failed)
	f.recorder.mu.Unlock()
	assert.Equal(t, "target reverted", failed.Reason)
	assert.Equal(t, models.PhaseFailed, failed.Tx.Phase)
	assert.Equal(t, "target reverted", f.get(t, "tx-1").StatusHistory[2].Message)
}

func TestMonitorSkipsTerminalRecord(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceConfirmed))
	f.createSubmitted(t, "tx-1")
	_, err := f.store.Update(context.Background(), "tx-1", func(tx *models.BridgeTransaction) error {
		tx.AppendStatus(models.PhaseRefunded, time.Now(), "refunded")
		return nil
	})
	require.NoError(t, err)

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return !f.monitor.IsMonitoring("tx-1") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), f.querier.calls.Load())
	assert.Empty(t, f.recorder.types())
}

func TestMonitorRecordsTargetRef(t *testing.T) {
	f := newFixture(t, func(n int64) (*relayer.PhaseResult, error) {
		return &relayer.PhaseResult{Phase: models.PhaseTargetSubmitted, TargetTxRef: "sig-1"}, nil
	})
	f.createSubmitted(t, "tx-1")

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return f.get(t, "tx-1").TargetTxRef == "sig-1" }, time.Second, 5*time.Millisecond)
}

func TestListenerPanicDoesNotStopPolling(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceConfirmed, models.PhaseCompleted))
	f.createSubmitted(t, "tx-1")

	bus := events.NewBus()
	bus.Subscribe("broken", events.ListenerFunc(func(models.Event) { panic("listener bug") }))
	bus.Subscribe("recorder", f.recorder)
	f.monitor.publisher = bus

	f.monitor.StartMonitoring("tx-1", tick)

	assert.Eventually(t, func() bool { return !f.monitor.IsMonitoring("tx-1") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, models.PhaseCompleted, f.get(t, "tx-1").Phase)
	assert.Len(t, f.recorder.types(), 3)
}

func TestActiveIntrospection(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceSubmitted))
	f.createSubmitted(t, "tx-2")
	f.createSubmitted(t, "tx-1")
	f.createSubmitted(t, "tx-3")
	ctx := context.Background()

	f.monitor.StartMonitoring("tx-2", time.Hour)
	f.monitor.StartMonitoring("tx-1", time.Hour)

	active, err := f.monitor.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "tx-1", active[0].Id)
	assert.Equal(t, "tx-2", active[1].Id)

	_, err = f.store.Update(ctx, "tx-1", func(tx *models.BridgeTransaction) error {
		tx.AppendStatus(models.PhaseSourceConfirmed, time.Now(), "confirmed")
		return nil
	})
	require.NoError(t, err)

	tx, err := f.monitor.GetActiveTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSourceConfirmed, tx.Phase)

	tx, err = f.monitor.GetActiveTransaction(ctx, "tx-3")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.True(t, common.IsNotFound(err))
	assert.Nil(t, tx)
}

func TestResume(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceSubmitted))
	ctx := context.Background()
	f.createSubmitted(t, "tx-active")
	f.createSubmitted(t, "tx-done")
	_, err := f.store.Update(ctx, "tx-done", func(tx *models.BridgeTransaction) error {
		tx.AppendStatus(models.PhaseCompleted, time.Now(), "done")
		return nil
	})
	require.NoError(t, err)
	unsubmitted := &models.BridgeTransaction{Id: "tx-pending", BridgeProvider: models.ProviderWormhole}
	unsubmitted.AppendStatus(models.PhasePending, time.Now(), "created")
	require.NoError(t, f.store.Create(ctx, unsubmitted))

	f.monitor.StartMonitoring("tx-active", time.Hour)
	resumed, err := f.monitor.Resume(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, resumed)
	assert.True(t, f.monitor.IsMonitoring("tx-active"))
	assert.False(t, f.monitor.IsMonitoring("tx-done"))
	assert.False(t, f.monitor.IsMonitoring("tx-pending"))

	f.monitor.StopMonitoring("tx-active")
	resumed, err = f.monitor.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed)
}

func TestMonitorStop(t *testing.T) {
	f := newFixture(t, phases(models.PhaseSourceSubmitted))
	f.createSubmitted(t, "tx-1")
	wg := &sync.WaitGroup{}
	f.monitor.WithWaitGroup(wg)

	wg.Add(1)
	go f.monitor.Start()
	f.monitor.StartMonitoring("tx-1", tick)
	assert.Equal(t, 1, f.monitor.Health().Pending)

	f.monitor.Stop()
	wg.Wait()

	health := f.monitor.Health()
	assert.False(t, health.Healthy)
	assert.Equal(t, 0, health.Pending)
	assert.Equal(t, MonitorName, health.Name)

	f.monitor.StartMonitoring("tx-1", tick)
	assert.False(t, f.monitor.IsMonitoring("tx-1"))
}
