package common

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// EthereumPrivateKeyFromCredential loads the signing key a transfer request
// carries. Hex encoded private keys are used as is, BIP-39 mnemonics are
// derived along the default Ethereum path m/44'/60'/0'/0/0.
func EthereumPrivateKeyFromCredential(credential string) (*ecdsa.PrivateKey, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, fmt.Errorf("%w: credential is empty", ErrInvalidAddress)
	}

	if bip39.IsMnemonicValid(credential) {
		return EthereumPrivateKeyFromMnemonic(credential)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(credential, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: credential is neither a private key nor a mnemonic", ErrInvalidAddress)
	}
	return key, nil
}

func EthereumPrivateKeyFromMnemonic(mnemonic string) (*ecdsa.PrivateKey, error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to load mnemonic: %w", err)
	}
	account, err := wallet.Derive(hdwallet.DefaultBaseDerivationPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account: %w", err)
	}
	return wallet.PrivateKey(account)
}

// EthereumAddressFromCredential returns the address that signs for credential.
func EthereumAddressFromCredential(credential string) (common.Address, error) {
	key, err := EthereumPrivateKeyFromCredential(credential)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
