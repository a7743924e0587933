package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/shopspring/decimal"
)

// Transfer is the source leg handed to a chain submitter.
type Transfer struct {
	Credential   string
	To           string
	AssetAddress string
	Decimals     int32
	Amount       decimal.Decimal
}

// Submitter sends one transfer on a single chain and returns its transaction hash.
type Submitter interface {
	Submit(ctx context.Context, transfer Transfer) (string, error)
}

// AddressChecker is implemented by submitters that can reject a destination
// before anything is sent.
type AddressChecker interface {
	CheckAddress(address string) error
}

type Registry struct {
	mu         sync.RWMutex
	submitters map[models.Chain]Submitter
}

func NewRegistry() *Registry {
	return &Registry{submitters: make(map[models.Chain]Submitter)}
}

func (r *Registry) Register(chain models.Chain, submitter Submitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitters[chain] = submitter
}

func (r *Registry) Get(chain models.Chain) (Submitter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submitters[chain]
	return s, ok
}

// SenderAddress derives the EVM address controlled by a private key or mnemonic credential.
func SenderAddress(credential string) (string, error) {
	address, err := common.EthereumAddressFromCredential(credential)
	if err != nil {
		return "", err
	}
	return address.Hex(), nil
}

// baseUnits converts amount into the asset's smallest unit.
func baseUnits(amount decimal.Decimal, decimals int32) (decimal.Decimal, error) {
	units := amount.Shift(decimals)
	if !units.IsInteger() {
		return decimal.Zero, fmt.Errorf("%w: %s has more than %d decimals", common.ErrInvalidAmount, amount, decimals)
	}
	return units, nil
}
