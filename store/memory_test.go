package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetOutput(io.Discard)
}

func newTestTransaction(id string, from string, to string) *models.BridgeTransaction {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := &models.BridgeTransaction{
		Id:             id,
		SourceChain:    models.ChainEthereum,
		TargetChain:    models.ChainSolana,
		FromAddress:    from,
		ToAddress:      to,
		Asset:          "USDC",
		Amount:         "100",
		BridgeProvider: models.ProviderWormhole,
		CreatedAt:      now,
	}
	tx.AppendStatus(models.PhasePending, now, "created")
	return tx
}

func TestMemoryStoreCreateGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tx := newTestTransaction("tx-1", "0xAbC", "sol-dest")

	require.NoError(t, s.Create(ctx, tx))

	got, err := s.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	got.Phase = models.PhaseFailed
	got.StatusHistory[0].Message = "mutated"
	again, _ := s.Get(ctx, "tx-1")
	assert.Equal(t, models.PhasePending, again.Phase)
	assert.Equal(t, "created", again.StatusHistory[0].Message)

	tx.Amount = "1"
	again, _ = s.Get(ctx, "tx-1")
	assert.Equal(t, "100", again.Amount)
}

func TestMemoryStoreErrors(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "a", "b")))

	err := s.Create(ctx, newTestTransaction("tx-1", "c", "d"))
	assert.ErrorIs(t, err, common.ErrDuplicateId)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Update(ctx, "missing", func(tx *models.BridgeTransaction) error { return nil })
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Error(t, s.Create(ctx, &models.BridgeTransaction{}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Get(cancelled, "tx-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreListByAddress(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "0xAAA", "0xBBB")))
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-2", "0xbbb", "0xCCC")))
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-3", "0xDDD", "0xDDD")))

	testCases := []struct {
		address string
		ids     []string
	}{
		{"0xaaa", []string{"tx-1"}},
		{"0xBBB", []string{"tx-1", "tx-2"}},
		{"0xccc", []string{"tx-2"}},
		{"0xddd", []string{"tx-3"}},
		{"0xeee", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.address, func(t *testing.T) {
			txs, err := s.ListByAddress(ctx, tc.address)
			require.NoError(t, err)
			ids := []string{}
			for _, tx := range txs {
				ids = append(ids, tx.Id)
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "a", "b")))
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-2", "a", "b")))
	_, err := s.Update(ctx, "tx-2", func(tx *models.BridgeTransaction) error {
		tx.AppendStatus(models.PhaseCompleted, time.Now(), "done")
		return nil
	})
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.List(ctx, NonTerminalPhases...)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "tx-1", active[0].Id)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies Mutation", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "a", "b")))

		updated, err := s.Update(ctx, "tx-1", func(tx *models.BridgeTransaction) error {
			tx.SourceTxRef = "0xhash"
			tx.AppendStatus(models.PhaseSourceSubmitted, time.Now(), "submitted")
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, models.PhaseSourceSubmitted, updated.Phase)
		got, _ := s.Get(ctx, "tx-1")
		assert.Equal(t, "0xhash", got.SourceTxRef)
		assert.Len(t, got.StatusHistory, 2)
	})

	t.Run("Error Discards Mutation", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "a", "b")))

		_, err := s.Update(ctx, "tx-1", func(tx *models.BridgeTransaction) error {
			tx.AppendStatus(models.PhaseFailed, time.Now(), "boom")
			return common.ErrTerminalPhase
		})

		assert.ErrorIs(t, err, common.ErrTerminalPhase)
		got, _ := s.Get(ctx, "tx-1")
		assert.Equal(t, models.PhasePending, got.Phase)
		assert.Len(t, got.StatusHistory, 1)
	})

	t.Run("Indexed Fields Are Immutable", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "a", "b")))

		_, err := s.Update(ctx, "tx-1", func(tx *models.BridgeTransaction) error {
			tx.ToAddress = "c"
			return nil
		})

		assert.Error(t, err)
		txs, _ := s.ListByAddress(ctx, "b")
		assert.Len(t, txs, 1)
	})
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ids := []string{"tx-1", "tx-2", "tx-3"}
	for _, id := range ids {
		require.NoError(t, s.Create(ctx, newTestTransaction(id, "a", "b")))
	}

	const writers = 20
	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				_, err := s.Update(ctx, id, func(tx *models.BridgeTransaction) error {
					tx.AppendStatus(tx.Phase, time.Now(), fmt.Sprintf("write %d", i))
					return nil
				})
				assert.NoError(t, err)
			}(id, i)
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.Get(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, got.StatusHistory, writers+1)
		for i := 1; i < len(got.StatusHistory); i++ {
			assert.False(t, got.StatusHistory[i].Timestamp.Before(got.StatusHistory[i-1].Timestamp))
		}
	}
}

func TestMemoryStoreUpdateBlocksSameId(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-1", "a", "b")))
	require.NoError(t, s.Create(ctx, newTestTransaction("tx-2", "a", "b")))

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		_, err := s.Update(ctx, "tx-1", func(tx *models.BridgeTransaction) error {
			close(entered)
			<-release
			return errors.New("aborted")
		})
		done <- err
	}()
	<-entered

	_, err := s.Update(ctx, "tx-2", func(tx *models.BridgeTransaction) error { return nil })
	assert.NoError(t, err)

	close(release)
	assert.Error(t, <-done)
}
