package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dan13ram/xbridge-engine/app"
	"github.com/dan13ram/xbridge-engine/bridge/mocks"
	"github.com/dan13ram/xbridge-engine/chain"
	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/events"
	"github.com/dan13ram/xbridge-engine/fees"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/dan13ram/xbridge-engine/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetOutput(io.Discard)
}

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) HandleEvent(event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type fixture struct {
	store      *store.MemoryStore
	submitters *chain.Registry
	source     *chain.SimulatedSubmitter
	monitor    *mocks.MockMonitor
	recorder   *recorder
	bridge     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	assets := common.NewAssetRegistry(common.DefaultAssets())
	estimator, err := fees.NewEstimator(app.DefaultChains(), app.DefaultProviders(), assets, common.DefaultAssets(), nil)
	require.NoError(t, err)

	f := &fixture{
		store:      store.NewMemoryStore(),
		submitters: chain.NewRegistry(),
		source:     chain.NewSimulatedSubmitter(models.ChainEthereum),
		monitor:    mocks.NewMockMonitor(t),
		recorder:   &recorder{},
	}
	f.submitters.Register(models.ChainEthereum, f.source)
	f.submitters.Register(models.ChainPolygon, chain.NewSimulatedSubmitter(models.ChainPolygon))

	bus := events.NewBus()
	bus.Subscribe("recorder", f.recorder)

	f.bridge = NewOrchestrator(f.store, estimator, f.submitters, assets, f.monitor, bus, Options{
		DefaultProvider: models.ProviderWormhole,
		Providers:       app.DefaultProviders(),
		SubmitTimeout:   time.Second,
		PollInterval:    time.Second,
	})
	return f
}

func usdcRequest() models.TransferRequest {
	return models.TransferRequest{
		SourceChain:    models.ChainEthereum,
		TargetChain:    models.ChainSolana,
		Asset:          "USDC",
		Amount:         "100",
		FromCredential: testKey,
		ToAddress:      "7EcDhSYGxXyscszYEp35KHN8vvw3svAuLKTzXwCFLtV",
	}
}

func TestCreateTransfer(t *testing.T) {
	f := newFixture(t)
	f.monitor.EXPECT().StartMonitoring(mock.AnythingOfType("string"), time.Second).Once()

	tx, err := f.bridge.CreateTransfer(context.Background(), usdcRequest())

	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.NotEmpty(t, tx.Id)
	assert.Equal(t, models.PhaseSourceSubmitted, tx.Phase)
	assert.Equal(t, models.ProviderWormhole, tx.BridgeProvider)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", tx.FromAddress)
	assert.NotEmpty(t, tx.SourceTxRef)
	assert.Equal(t, uint64(1), f.source.Count())

	// the record is returned after the source leg is recorded, so PENDING is
	// followed by SOURCE_SUBMITTED and the last entry matches the phase
	require.Len(t, tx.StatusHistory, 2)
	assert.Equal(t, models.PhasePending, tx.StatusHistory[0].Phase)
	assert.Equal(t, models.PhaseSourceSubmitted, tx.StatusHistory[1].Phase)

	sum := decimal.RequireFromString(tx.Fees.SourceFee).
		Add(decimal.RequireFromString(tx.Fees.BridgeFee)).
		Add(decimal.RequireFromString(tx.Fees.TargetFee))
	assert.True(t, sum.Equal(decimal.RequireFromString(tx.Fees.Total)))
	assert.Equal(t, "6.10075", tx.Fees.Total)
	assert.Equal(t, tx.CreatedAt.Add(time.Duration(tx.Fees.EstimatedDurationSeconds)*time.Second), tx.EstimatedCompletionAt)

	stored, err := f.bridge.GetTransfer(context.Background(), tx.Id)
	require.NoError(t, err)
	assert.Equal(t, tx, stored)

	require.Len(t, f.recorder.events, 1)
	changed := f.recorder.events[0].(models.PhaseChanged)
	assert.Equal(t, models.PhasePending, changed.PreviousPhase)
	assert.Equal(t, models.PhaseSourceSubmitted, changed.NewPhase)
	assert.Equal(t, tx.Id, changed.Tx.Id)
}

func TestCreateTransferKeepsGivenFromAddress(t *testing.T) {
	f := newFixture(t)
	f.monitor.EXPECT().StartMonitoring(mock.Anything, mock.Anything).Once()
	req := usdcRequest()
	req.FromAddress = "0xCafe"
	req.FromCredential = "opaque"
	req.BridgeProvider = models.ProviderCeler

	tx, err := f.bridge.CreateTransfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "0xCafe", tx.FromAddress)
	assert.Equal(t, models.ProviderCeler, tx.BridgeProvider)

	listed, err := f.bridge.ListTransfersFor(context.Background(), "0xcafe")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, tx.Id, listed[0].Id)
}

func TestCreateTransferValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *models.TransferRequest)
		err    error
		kind   string
	}{
		{"unparsable amount", func(r *models.TransferRequest) { r.Amount = "ten" }, common.ErrInvalidAmount, "InvalidAmountError"},
		{"zero amount", func(r *models.TransferRequest) { r.Amount = "0" }, common.ErrInvalidAmount, "InvalidAmountError"},
		{"negative amount", func(r *models.TransferRequest) { r.Amount = "-5" }, common.ErrInvalidAmount, "InvalidAmountError"},
		{"too many decimals", func(r *models.TransferRequest) { r.Amount = "0.0000001" }, common.ErrInvalidAmount, "InvalidAmountError"},
		{"unsupported source", func(r *models.TransferRequest) { r.SourceChain = "near" }, common.ErrUnsupportedChain, "UnsupportedChainError"},
		{"unsupported target", func(r *models.TransferRequest) { r.TargetChain = "near" }, common.ErrUnsupportedChain, "UnsupportedChainError"},
		{"same chain", func(r *models.TransferRequest) { r.TargetChain = models.ChainEthereum }, common.ErrSameChain, "SameChainError"},
		{"unsupported provider", func(r *models.TransferRequest) { r.BridgeProvider = "stargate" }, common.ErrUnsupportedProvider, "UnsupportedProviderError"},
		{"unknown asset", func(r *models.TransferRequest) { r.Asset = "DOGE" }, common.ErrUnsupportedAsset, "UnsupportedAssetError"},
		{"asset missing on target", func(r *models.TransferRequest) { r.Asset = "ETH" }, common.ErrUnsupportedAsset, "UnsupportedAssetError"},
		{"missing to address", func(r *models.TransferRequest) { r.ToAddress = " " }, common.ErrInvalidAddress, "InvalidAddressError"},
		{"underivable from address", func(r *models.TransferRequest) { r.FromCredential = "not-a-key" }, common.ErrInvalidAddress, "InvalidAddressError"},
		{"amount checked before chains", func(r *models.TransferRequest) { r.Amount = "0"; r.SourceChain = "near" }, common.ErrInvalidAmount, "InvalidAmountError"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := usdcRequest()
			tc.mutate(&req)

			tx, err := f.bridge.CreateTransfer(context.Background(), req)

			assert.Nil(t, tx)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.kind, common.ErrorKind(err))
			assert.True(t, common.IsValidationError(err))

			all, err := f.store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, f.recorder.events)
			assert.Equal(t, uint64(0), f.source.Count())
		})
	}
}

func TestCreateTransferTrailingZerosAreValid(t *testing.T) {
	f := newFixture(t)
	f.monitor.EXPECT().StartMonitoring(mock.Anything, time.Second).Once()
	req := usdcRequest()
	req.Amount = "1.500000000"

	tx, err := f.bridge.CreateTransfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "1.5", tx.Amount)
}

func TestCreateTransferEVMSourceValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *models.TransferRequest)
		err    error
	}{
		{"non evm destination", func(r *models.TransferRequest) {}, common.ErrInvalidAddress},
		{"too many decimals", func(r *models.TransferRequest) {
			r.ToAddress = "0x1111111111111111111111111111111111111111"
			r.Amount = "0.0000001"
		}, common.ErrInvalidAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.submitters.Register(models.ChainEthereum, chain.NewEthereumSubmitter("ethereum", nil, 1, 0))
			req := usdcRequest()
			tc.mutate(&req)

			tx, err := f.bridge.CreateTransfer(context.Background(), req)

			assert.Nil(t, tx)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, common.IsValidationError(err))
			all, err := f.store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, f.recorder.events)
		})
	}
}

func TestCreateTransferRecordsSourceLegAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.submitters.Register(models.ChainEthereum, submitterFunc(func(context.Context, chain.Transfer) (string, error) {
		cancel()
		return "0xsent", nil
	}))
	f.monitor.EXPECT().StartMonitoring(mock.Anything, time.Second).Once()

	tx, err := f.bridge.CreateTransfer(ctx, usdcRequest())

	require.NoError(t, err)
	assert.Equal(t, models.PhaseSourceSubmitted, tx.Phase)
	assert.Equal(t, "0xsent", tx.SourceTxRef)

	stored, err := f.bridge.GetTransfer(context.Background(), tx.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSourceSubmitted, stored.Phase)
	assert.Equal(t, "0xsent", stored.SourceTxRef)
	assert.Len(t, stored.StatusHistory, 2)
}

func TestCreateTransferRecordsFailureAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.submitters.Register(models.ChainEthereum, submitterFunc(func(ctx context.Context, _ chain.Transfer) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	}))

	tx, err := f.bridge.CreateTransfer(ctx, usdcRequest())

	assert.ErrorIs(t, err, common.ErrSubmission)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "SubmissionError", common.ErrorKind(err))
	require.NotNil(t, tx)
	assert.Equal(t, models.PhaseFailed, tx.Phase)

	stored, err := f.bridge.GetTransfer(context.Background(), tx.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseFailed, stored.Phase)
	require.Len(t, f.recorder.events, 2)
	assert.Equal(t, models.EventFailed, f.recorder.events[1].Type())
}

func TestCreateTransferSubmitterValidationErrorIsSubmissionError(t *testing.T) {
	f := newFixture(t)
	f.submitters.Register(models.ChainEthereum, submitterFunc(func(context.Context, chain.Transfer) (string, error) {
		return "", fmt.Errorf("%w: token not deployed", common.ErrInvalidAddress)
	}))

	tx, err := f.bridge.CreateTransfer(context.Background(), usdcRequest())

	assert.ErrorIs(t, err, common.ErrSubmission)
	assert.ErrorIs(t, err, common.ErrInvalidAddress)
	assert.Equal(t, "SubmissionError", common.ErrorKind(err))
	assert.False(t, common.IsValidationError(err))
	require.NotNil(t, tx)
	assert.Equal(t, models.PhaseFailed, tx.Phase)
}

func TestCreateTransferUnmappedAssetCreatesNothing(t *testing.T) {
	f := newFixture(t)
	req := usdcRequest()
	req.Asset = "USDT"
	req.TargetChain = models.ChainAvalanche

	tx, err := f.bridge.CreateTransfer(context.Background(), req)

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, common.ErrUnsupportedAsset)
	_, err = f.bridge.GetTransfer(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, "NotFound", common.ErrorKind(err))
}

func TestCreateTransferSubmissionFailure(t *testing.T) {
	f := newFixture(t)
	f.source.SetFailure(errors.New("insufficient funds for gas"))

	tx, err := f.bridge.CreateTransfer(context.Background(), usdcRequest())

	assert.ErrorIs(t, err, common.ErrSubmission)
	assert.Equal(t, "SubmissionError", common.ErrorKind(err))
	assert.False(t, common.IsValidationError(err))
	require.NotNil(t, tx)
	assert.Equal(t, models.PhaseFailed, tx.Phase)
	assert.Empty(t, tx.SourceTxRef)
	require.Len(t, tx.StatusHistory, 2)
	assert.Equal(t, "insufficient funds for gas", tx.StatusHistory[1].Message)

	stored, err := f.bridge.GetTransfer(context.Background(), tx.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseFailed, stored.Phase)

	require.Len(t, f.recorder.events, 2)
	assert.Equal(t, models.EventPhaseChanged, f.recorder.events[0].Type())
	failed := f.recorder.events[1].(models.Failed)
	assert.Equal(t, "insufficient funds for gas", failed.Reason)
}

func TestCreateTransferWithoutSubmitter(t *testing.T) {
	f := newFixture(t)
	req := usdcRequest()
	req.SourceChain = models.ChainBSC

	tx, err := f.bridge.CreateTransfer(context.Background(), req)

	assert.ErrorIs(t, err, common.ErrSubmission)
	require.NotNil(t, tx)
	assert.Equal(t, models.PhaseFailed, tx.Phase)
}

func TestCreateTransferSubmitsToProviderContract(t *testing.T) {
	var got chain.Transfer
	f := newFixture(t)
	f.submitters.Register(models.ChainEthereum, submitterFunc(func(_ context.Context, transfer chain.Transfer) (string, error) {
		got = transfer
		return "0xabc", nil
	}))
	providers := app.DefaultProviders()
	providers[0].Contracts = map[models.Chain]string{models.ChainEthereum: "0x3ee18B2214AFF97000D974cf647E7C347E8fa585"}
	f.bridge.providers[models.ProviderWormhole] = providers[0]
	f.monitor.EXPECT().StartMonitoring(mock.Anything, time.Second).Once()

	tx, err := f.bridge.CreateTransfer(context.Background(), usdcRequest())

	require.NoError(t, err)
	assert.Equal(t, "0xabc", tx.SourceTxRef)
	assert.Equal(t, "0x3ee18B2214AFF97000D974cf647E7C347E8fa585", got.To)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", got.AssetAddress)
	assert.Equal(t, int32(6), got.Decimals)
	assert.Equal(t, "100", got.Amount.String())
	assert.Equal(t, testKey, got.Credential)
}

func TestCreateTransferFeeError(t *testing.T) {
	estimator := mocks.NewMockFeeEstimator(t)
	estimator.EXPECT().
		Estimate(mock.Anything, models.ChainEthereum, models.ChainSolana, "USDC", mock.Anything, models.ProviderWormhole).
		Return(models.FeeBreakdown{}, common.ErrUnsupportedChain)
	f := newFixture(t)
	f.bridge.estimator = estimator

	tx, err := f.bridge.CreateTransfer(context.Background(), usdcRequest())

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, common.ErrUnsupportedChain)
	all, _ := f.store.List(context.Background())
	assert.Empty(t, all)
}

func TestListTransfersForRequiresAddress(t *testing.T) {
	f := newFixture(t)
	_, err := f.bridge.ListTransfersFor(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidAddress)
}

type submitterFunc func(ctx context.Context, transfer chain.Transfer) (string, error)

func (f submitterFunc) Submit(ctx context.Context, transfer chain.Transfer) (string, error) {
	return f(ctx, transfer)
}
