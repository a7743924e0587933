package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(err)
	}
}

// EthClient is the part of *ethclient.Client used to send a transfer.
type EthClient interface {
	PendingNonceAt(ctx context.Context, account ethCommon.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EthereumSubmitter signs legacy EIP-155 transactions for any EVM chain.
type EthereumSubmitter struct {
	name     string
	client   EthClient
	chainID  *big.Int
	gasLimit uint64
}

func NewEthereumSubmitter(name string, client EthClient, chainID int64, gasLimit uint64) *EthereumSubmitter {
	if gasLimit == 0 {
		gasLimit = common.DefaultERC20TransferGas
	}
	return &EthereumSubmitter{
		name:     name,
		client:   client,
		chainID:  big.NewInt(chainID),
		gasLimit: gasLimit,
	}
}

func (s *EthereumSubmitter) CheckAddress(address string) error {
	if !ethCommon.IsHexAddress(address) {
		return fmt.Errorf("%w: %s is not an EVM address", common.ErrInvalidAddress, address)
	}
	return nil
}

func (s *EthereumSubmitter) Submit(ctx context.Context, transfer Transfer) (string, error) {
	logger := log.WithField("chain", s.name).WithField("to", transfer.To)

	if err := s.CheckAddress(transfer.To); err != nil {
		return "", err
	}
	key, err := common.EthereumPrivateKeyFromCredential(transfer.Credential)
	if err != nil {
		return "", fmt.Errorf("error loading private key: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	units, err := baseUnits(transfer.Amount, transfer.Decimals)
	if err != nil {
		return "", err
	}

	var (
		to    ethCommon.Address
		value = big.NewInt(0)
		data  []byte
		gas   = s.gasLimit
	)
	if transfer.AssetAddress == common.NativeAsset {
		to = ethCommon.HexToAddress(transfer.To)
		value = units.BigInt()
		gas = common.DefaultEVMTransferGas
	} else {
		if !ethCommon.IsHexAddress(transfer.AssetAddress) {
			return "", fmt.Errorf("%w: token %s", common.ErrInvalidAddress, transfer.AssetAddress)
		}
		to = ethCommon.HexToAddress(transfer.AssetAddress)
		data, err = erc20ABI.Pack("transfer", ethCommon.HexToAddress(transfer.To), units.BigInt())
		if err != nil {
			return "", fmt.Errorf("error packing transfer call: %w", err)
		}
	}

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("error getting nonce for wallet: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting suggested gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), key)
	if err != nil {
		return "", fmt.Errorf("error signing transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("error sending transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	logger.WithField("hash", hash).Debug("[CHAIN] Sent transaction")
	return hash, nil
}
