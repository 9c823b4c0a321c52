package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

const (
	// DatadirKey is the local data directory to store the accounts db and files
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// SolanaRPCURLKey is the http endpoint of the solana test validator
	SolanaRPCURLKey = "SOLANA_RPC_URL"
	// BitcoinRPCAddrKey is the <host:port> of the bitcoind JSON-RPC interface
	BitcoinRPCAddrKey = "BITCOIN_RPC_ADDR"
	// BitcoinRPCUserKey is the bitcoind rpcuser
	BitcoinRPCUserKey = "BITCOIN_RPC_USER"
	// BitcoinRPCPasswordKey is the bitcoind rpcpassword
	BitcoinRPCPasswordKey = "BITCOIN_RPC_PASSWORD"
	// BitcoinWalletKey is the name of the bitcoind wallet funding the accounts
	BitcoinWalletKey = "BITCOIN_WALLET"
	// BitcoinNetworkKey is one of regtest, testnet or mainnet
	BitcoinNetworkKey = "BITCOIN_NETWORK"
	// AccountsKey is the number of accounts derived for every instance
	AccountsKey = "ACCOUNTS"
	// FeeSatsPerVByteKey is the fee rate of the funding txs
	FeeSatsPerVByteKey = "FEE_SATS_PER_VBYTE"
	// DustThresholdKey is the value in sats below which no change output is
	// created
	DustThresholdKey = "DUST_THRESHOLD"
	// AirdropMaxAttemptsKey bounds the airdrop requests of a single funding
	AirdropMaxAttemptsKey = "AIRDROP_MAX_ATTEMPTS"
	// AirdropBackoffKey is the delay before retrying a rate limited airdrop,
	// doubled at every attempt
	AirdropBackoffKey = "AIRDROP_BACKOFF"
	// AirdropRatePerSecondKey paces the airdrop requests, 0 disables it
	AirdropRatePerSecondKey = "AIRDROP_RATE_PER_SECOND"
	// ReadinessAttemptsKey bounds the health checks of a daemon
	ReadinessAttemptsKey = "READINESS_ATTEMPTS"
	// ReadinessDelayKey is the delay between the first health checks
	ReadinessDelayKey = "READINESS_DELAY"
	// ConfirmationAttemptsKey bounds the polls for an airdrop confirmation
	ConfirmationAttemptsKey = "CONFIRMATION_ATTEMPTS"
	// ConfirmationIntervalKey is the delay between confirmation polls
	ConfirmationIntervalKey = "CONFIRMATION_INTERVAL"

	DbLocation    = "db"
	StatsLocation = "stats"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("devnet-forge", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("FORGE")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(SolanaRPCURLKey, "http://127.0.0.1:8899")
	vip.SetDefault(BitcoinRPCAddrKey, "127.0.0.1:18443")
	vip.SetDefault(BitcoinRPCUserKey, "admin1")
	vip.SetDefault(BitcoinRPCPasswordKey, "123")
	vip.SetDefault(BitcoinWalletKey, "chain-forge")
	vip.SetDefault(BitcoinNetworkKey, "regtest")
	vip.SetDefault(AccountsKey, 10)
	vip.SetDefault(FeeSatsPerVByteKey, 2)
	vip.SetDefault(DustThresholdKey, 294)
	vip.SetDefault(AirdropMaxAttemptsKey, 5)
	vip.SetDefault(AirdropBackoffKey, 500*time.Millisecond)
	vip.SetDefault(AirdropRatePerSecondKey, 0)
	vip.SetDefault(ReadinessAttemptsKey, 10)
	vip.SetDefault(ReadinessDelayKey, 250*time.Millisecond)
	vip.SetDefault(ConfirmationAttemptsKey, 30)
	vip.SetDefault(ConfirmationIntervalKey, 500*time.Millisecond)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetStatsDir() string {
	return filepath.Join(GetDatadir(), StatsLocation)
}

func GetNetwork() *chaincfg.Params {
	network, _ := wallet.NetworkParams(GetString(BitcoinNetworkKey))
	return network
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := wallet.NetworkParams(GetString(BitcoinNetworkKey)); err != nil {
		return fmt.Errorf("%s: %s", BitcoinNetworkKey, err)
	}

	if solanaURL := GetString(SolanaRPCURLKey); solanaURL != "" {
		parsed, err := url.Parse(solanaURL)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("%s must be a valid http url", SolanaRPCURLKey)
		}
	}

	if GetInt(AccountsKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", AccountsKey)
	}
	if GetInt(FeeSatsPerVByteKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", FeeSatsPerVByteKey)
	}
	if GetInt(DustThresholdKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", DustThresholdKey)
	}

	for _, key := range []string{
		AirdropMaxAttemptsKey, ReadinessAttemptsKey, ConfirmationAttemptsKey,
	} {
		if GetInt(key) <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}
	if GetInt(AirdropRatePerSecondKey) < 0 {
		return fmt.Errorf("%s must not be negative", AirdropRatePerSecondKey)
	}
	for _, key := range []string{
		AirdropBackoffKey, ReadinessDelayKey, ConfirmationIntervalKey,
	} {
		if GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, StatsLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
