package common

const (
	NativeAsset             = "native"
	DefaultHistorySize      = 50
	DefaultFailureLogSize   = 200
	DefaultTopPaths         = 5
	DefaultEVMTransferGas   = 21000
	DefaultERC20TransferGas = 65000
)
