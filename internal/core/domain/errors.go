package domain

import "errors"

var (
	// ErrInvalidMnemonic is returned when a seed phrase has a wrong word count
	// or checksum. Never retried.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrDerivation is returned for malformed seeds or out of range account
	// indexes. Never retried.
	ErrDerivation = errors.New("key derivation failed")
	// ErrInsufficientWalletFunds is returned when the funding source cannot
	// cover amount plus fee.
	ErrInsufficientWalletFunds = errors.New("insufficient wallet funds")
	// ErrRpcUnavailable is returned when the daemon cannot be reached, after
	// any bounded retry has been exhausted.
	ErrRpcUnavailable = errors.New("rpc unavailable")
	// ErrRateLimited is returned when the faucet kept rejecting requests for
	// rate limiting after every retry.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransactionRejected is returned when the daemon refuses a tx.
	ErrTransactionRejected = errors.New("transaction rejected")
	// ErrUnknownAddress is returned when no local key owns a source address.
	ErrUnknownAddress = errors.New("unknown address")
	// ErrTxNotConfirmed ...
	ErrTxNotConfirmed = errors.New("transaction not confirmed")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrUnknownChain ...
	ErrUnknownChain = errors.New("unknown chain family")
	// ErrInvalidInstanceID ...
	ErrInvalidInstanceID = errors.New(
		"instance id must contain only lowercase letters, digits and inner hyphens",
	)
	// ErrInstanceNotFound ...
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrInstanceAlreadyRunning ...
	ErrInstanceAlreadyRunning = errors.New("instance is already running")
	// ErrInstanceNotRunning ...
	ErrInstanceNotRunning = errors.New("instance is not running")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
)
