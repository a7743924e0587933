package relayer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
)

const MethodGetTransferStatus = "bridge_getTransferStatus"

var statusPhases = map[string]models.Phase{
	"pending":          models.PhaseSourceSubmitted,
	"submitted":        models.PhaseSourceSubmitted,
	"source_confirmed": models.PhaseSourceConfirmed,
	"confirmed":        models.PhaseSourceConfirmed,
	"processing":       models.PhaseBridgeProcessing,
	"relaying":         models.PhaseBridgeProcessing,
	"target_submitted": models.PhaseTargetSubmitted,
	"redeeming":        models.PhaseTargetSubmitted,
	"completed":        models.PhaseCompleted,
	"redeemed":         models.PhaseCompleted,
	"failed":           models.PhaseFailed,
	"refunded":         models.PhaseRefunded,
}

type transferStatusRequest struct {
	SourceChain models.Chain `json:"source_chain"`
	TargetChain models.Chain `json:"target_chain"`
	SourceTx    string       `json:"source_tx"`
	Reference   string       `json:"reference"`
}

type transferStatusResponse struct {
	Status   string `json:"status"`
	TargetTx string `json:"target_tx"`
	Message  string `json:"message"`
}

// RPCQuerier reads transfer status from a provider's JSON-RPC relayer API.
type RPCQuerier struct {
	provider models.Provider
	client   jsonrpc.RPCClient
}

func NewRPCQuerier(config models.ProviderConfig) *RPCQuerier {
	timeout := time.Duration(config.RPCTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts := &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if config.APIKey != "" {
		opts.CustomHeaders = map[string]string{"X-API-Key": config.APIKey}
	}
	return &RPCQuerier{
		provider: config.Name,
		client:   jsonrpc.NewClientWithOpts(config.RPCURL, opts),
	}
}

type callResult struct {
	res *jsonrpc.RPCResponse
	err error
}

func (q *RPCQuerier) call(ctx context.Context, params interface{}) (*jsonrpc.RPCResponse, error) {
	done := make(chan callResult, 1)
	go func() {
		res, err := q.client.Call(MethodGetTransferStatus, params)
		done <- callResult{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.res, r.err
	}
}

func (q *RPCQuerier) QueryPhase(ctx context.Context, tx *models.BridgeTransaction) (*PhaseResult, error) {
	logger := log.WithField("provider", q.provider).WithField("transaction_id", tx.Id)

	response, err := q.call(ctx, &transferStatusRequest{
		SourceChain: tx.SourceChain,
		TargetChain: tx.TargetChain,
		SourceTx:    tx.SourceTxRef,
		Reference:   tx.Id,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrQuery, err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrQuery, response.Error.Error())
	}

	var status transferStatusResponse
	if err := response.GetObject(&status); err != nil {
		return nil, fmt.Errorf("%w: decoding status: %s", common.ErrQuery, err)
	}

	phase, ok := statusPhases[strings.ToLower(status.Status)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrQuery, status.Status)
	}

	logger.WithField("status", status.Status).Debug("[RELAYER] Queried transfer status")
	return &PhaseResult{
		Phase:       phase,
		TargetTxRef: status.TargetTx,
		Message:     status.Message,
	}, nil
}
