package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dan13ram/xbridge-engine/chain"
	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/metrics"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/dan13ram/xbridge-engine/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type FeeEstimator interface {
	Estimate(
		ctx context.Context,
		sourceChain models.Chain,
		targetChain models.Chain,
		asset string,
		amount decimal.Decimal,
		provider models.Provider,
	) (models.FeeBreakdown, error)
}

// Monitor is the part of the transaction monitor the orchestrator hands transfers to.
type Monitor interface {
	StartMonitoring(id string, interval time.Duration)
}

type Publisher interface {
	Publish(event models.Event)
}

type Options struct {
	DefaultProvider models.Provider
	Providers       []models.ProviderConfig
	SubmitTimeout   time.Duration
	StoreTimeout    time.Duration
	PollInterval    time.Duration
	Metrics         *metrics.Metrics
	Now             func() time.Time
	NewId           func() string
}

func OptionsFromConfig(config models.BridgeConfig, monitor models.MonitorConfig) Options {
	return Options{
		DefaultProvider: config.DefaultProvider,
		Providers:       config.Providers,
		SubmitTimeout:   time.Duration(config.SubmitTimeoutMillis) * time.Millisecond,
		StoreTimeout:    time.Duration(monitor.StoreTimeoutMillis) * time.Millisecond,
		PollInterval:    time.Duration(monitor.IntervalMillis) * time.Millisecond,
	}
}

// Orchestrator validates transfer requests, records them and submits their source leg.
type Orchestrator struct {
	store      store.TransactionStore
	estimator  FeeEstimator
	submitters *chain.Registry
	assets     *common.AssetRegistry
	monitor    Monitor
	publisher  Publisher
	metrics    *metrics.Metrics

	providers map[models.Provider]models.ProviderConfig
	opts      Options
}

func NewOrchestrator(
	transactions store.TransactionStore,
	estimator FeeEstimator,
	submitters *chain.Registry,
	assets *common.AssetRegistry,
	monitor Monitor,
	publisher Publisher,
	opts Options,
) *Orchestrator {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 10 * time.Second
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewId == nil {
		opts.NewId = uuid.NewString
	}

	providers := make(map[models.Provider]models.ProviderConfig)
	for _, p := range opts.Providers {
		providers[p.Name] = p
	}

	return &Orchestrator{
		store:      transactions,
		estimator:  estimator,
		submitters: submitters,
		assets:     assets,
		monitor:    monitor,
		publisher:  publisher,
		metrics:    opts.Metrics,
		providers:  providers,
		opts:       opts,
	}
}

type validated struct {
	request      models.TransferRequest
	amount       decimal.Decimal
	asset        models.AssetConfig
	assetAddress string
	destination  string
}

func (o *Orchestrator) validate(req models.TransferRequest) (*validated, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", common.ErrInvalidAmount, req.Amount)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s must be greater than zero", common.ErrInvalidAmount, req.Amount)
	}

	if !req.SourceChain.IsSupported() {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedChain, req.SourceChain)
	}
	if !req.TargetChain.IsSupported() {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedChain, req.TargetChain)
	}
	if req.SourceChain == req.TargetChain {
		return nil, fmt.Errorf("%w: %s", common.ErrSameChain, req.SourceChain)
	}

	if req.BridgeProvider == "" {
		req.BridgeProvider = o.opts.DefaultProvider
	}
	provider, ok := o.providers[req.BridgeProvider]
	if !ok || !req.BridgeProvider.IsSupported() {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedProvider, req.BridgeProvider)
	}

	asset, ok := o.assets.Get(req.Asset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedAsset, req.Asset)
	}
	assetAddress, ok := o.assets.Resolve(req.Asset, req.SourceChain)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no mapping on %s", common.ErrUnsupportedAsset, req.Asset, req.SourceChain)
	}
	if _, ok := o.assets.Resolve(req.Asset, req.TargetChain); !ok {
		return nil, fmt.Errorf("%w: %s has no mapping on %s", common.ErrUnsupportedAsset, req.Asset, req.TargetChain)
	}
	if !amount.Shift(asset.Decimals).IsInteger() {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", common.ErrInvalidAmount, req.Amount, asset.Decimals)
	}
	req.Asset = asset.Symbol

	if strings.TrimSpace(req.ToAddress) == "" {
		return nil, fmt.Errorf("%w: to address is required", common.ErrInvalidAddress)
	}
	destination := req.ToAddress
	if contract, ok := provider.Contracts[req.SourceChain]; ok && contract != "" {
		destination = contract
	}
	if submitter, ok := o.submitters.Get(req.SourceChain); ok {
		if checker, ok := submitter.(chain.AddressChecker); ok {
			if err := checker.CheckAddress(destination); err != nil {
				return nil, err
			}
		}
	}
	if strings.TrimSpace(req.FromAddress) == "" {
		from, err := chain.SenderAddress(req.FromCredential)
		if err != nil {
			return nil, fmt.Errorf("%w: from address is required when the credential is not an EVM key", common.ErrInvalidAddress)
		}
		req.FromAddress = from
	}

	return &validated{
		request:      req,
		amount:       amount,
		asset:        asset,
		assetAddress: assetAddress,
		destination:  destination,
	}, nil
}

// CreateTransfer records a new transfer and submits its source leg.
//
// On a submission failure the record is kept in the FAILED phase and returned
// together with an error wrapping common.ErrSubmission. Validation errors
// persist nothing.
func (o *Orchestrator) CreateTransfer(ctx context.Context, req models.TransferRequest) (*models.BridgeTransaction, error) {
	v, err := o.validate(req)
	if err != nil {
		log.WithError(err).Debug("[BRIDGE] Rejected transfer request")
		return nil, err
	}
	req = v.request

	fees, err := o.estimator.Estimate(ctx, req.SourceChain, req.TargetChain, req.Asset, v.amount, req.BridgeProvider)
	if err != nil {
		return nil, err
	}

	now := o.opts.Now()
	tx := &models.BridgeTransaction{
		Id:                    o.opts.NewId(),
		SourceChain:           req.SourceChain,
		TargetChain:           req.TargetChain,
		FromAddress:           req.FromAddress,
		ToAddress:             req.ToAddress,
		Asset:                 req.Asset,
		Amount:                v.amount.String(),
		BridgeProvider:        req.BridgeProvider,
		Fees:                  fees,
		CreatedAt:             now,
		EstimatedCompletionAt: now.Add(time.Duration(fees.EstimatedDurationSeconds) * time.Second),
	}
	tx.AppendStatus(models.PhasePending, now, "transfer created")

	logger := log.WithField("transaction_id", tx.Id).
		WithField("source_chain", tx.SourceChain).
		WithField("target_chain", tx.TargetChain).
		WithField("provider", tx.BridgeProvider)

	if err := o.store.Create(ctx, tx); err != nil {
		logger.WithError(err).Error("[BRIDGE] Error storing transaction")
		return nil, err
	}
	logger.Info("[BRIDGE] Created transaction")

	txHash, err := o.submit(ctx, v)
	if err != nil {
		o.metrics.ObserveTransfer(tx.SourceChain, tx.TargetChain, false)
		logger.WithError(err).Error("[BRIDGE] Source leg submission failed")
		return o.fail(ctx, tx, err)
	}
	o.metrics.ObserveTransfer(tx.SourceChain, tx.TargetChain, true)

	// the source leg is on chain now, so it is recorded even if the caller went away
	storeCtx, cancel := o.detached(ctx)
	defer cancel()
	updated, err := o.store.Update(storeCtx, tx.Id, func(stored *models.BridgeTransaction) error {
		stored.SourceTxRef = txHash
		stored.AppendStatus(models.PhaseSourceSubmitted, o.opts.Now(), "source leg submitted: "+txHash)
		return nil
	})
	if err != nil {
		logger.WithError(err).WithField("source_tx_ref", txHash).Error("[BRIDGE] Error recording source leg")
		return tx, err
	}
	logger.WithField("source_tx_ref", txHash).Info("[BRIDGE] Submitted source leg")

	o.publish(models.PhaseChanged{
		Tx:            updated.Clone(),
		PreviousPhase: models.PhasePending,
		NewPhase:      models.PhaseSourceSubmitted,
		At:            updated.UpdatedAt,
	})
	if o.monitor != nil {
		o.monitor.StartMonitoring(updated.Id, o.opts.PollInterval)
	}
	return updated, nil
}

func (o *Orchestrator) submit(ctx context.Context, v *validated) (string, error) {
	submitter, ok := o.submitters.Get(v.request.SourceChain)
	if !ok {
		return "", fmt.Errorf("no submitter for %s", v.request.SourceChain)
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.SubmitTimeout)
	defer cancel()

	return submitter.Submit(ctx, chain.Transfer{
		Credential:   v.request.FromCredential,
		To:           v.destination,
		AssetAddress: v.assetAddress,
		Decimals:     v.asset.Decimals,
		Amount:       v.amount,
	})
}

func (o *Orchestrator) fail(ctx context.Context, tx *models.BridgeTransaction, cause error) (*models.BridgeTransaction, error) {
	submissionErr := fmt.Errorf("%w: %w", common.ErrSubmission, cause)

	storeCtx, cancel := o.detached(ctx)
	defer cancel()
	updated, err := o.store.Update(storeCtx, tx.Id, func(stored *models.BridgeTransaction) error {
		stored.AppendStatus(models.PhaseFailed, o.opts.Now(), cause.Error())
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("transaction_id", tx.Id).Error("[BRIDGE] Error recording failed submission")
		return tx, errors.Join(submissionErr, err)
	}

	o.publish(models.PhaseChanged{
		Tx:            updated.Clone(),
		PreviousPhase: models.PhasePending,
		NewPhase:      models.PhaseFailed,
		At:            updated.UpdatedAt,
	})
	o.publish(models.TerminalEvent(updated.Clone(), cause.Error(), updated.UpdatedAt))
	return updated, submissionErr
}

// detached keeps ctx values but not its cancellation, bounded by the store timeout.
func (o *Orchestrator) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.opts.StoreTimeout)
}

func (o *Orchestrator) publish(event models.Event) {
	if o.publisher != nil {
		o.publisher.Publish(event)
	}
}

func (o *Orchestrator) GetTransfer(ctx context.Context, id string) (*models.BridgeTransaction, error) {
	return o.store.Get(ctx, id)
}

// ListTransfersFor returns every transfer sent from or to address.
func (o *Orchestrator) ListTransfersFor(ctx context.Context, address string) ([]*models.BridgeTransaction, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: address is required", common.ErrInvalidAddress)
	}
	return o.store.ListByAddress(ctx, address)
}
