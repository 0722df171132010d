// Package config enables config file parsing.
package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/layerist/ethereum-transfer-script/log"
)

// Config contains the CLI configuration.
type Config struct {
	Transfer *TransferConfig `koanf:"transfer"`
	Log      *LogConfig      `koanf:"log"`
	Metrics  *MetricsConfig  `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Transfer == nil {
		return fmt.Errorf("transfer section not configured")
	}
	if err := cfg.Transfer.Validate(); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// TransferConfig is the configuration for a single value transfer.
type TransferConfig struct {
	// Endpoint is the JSON-RPC endpoint of the Ethereum node.
	Endpoint string `koanf:"endpoint"`

	// From is the hex-encoded sender address.
	From string `koanf:"from"`
	// To is the hex-encoded recipient address.
	To string `koanf:"to"`
	// PrivateKey is the hex-encoded sender private key.
	PrivateKey string `koanf:"private_key"`

	// Amount is the transfer amount in ether, as a decimal string.
	Amount string `koanf:"amount"`

	// GasPrice optionally pins a fixed legacy gas price in wei. An
	// unparsable or non-positive value is ignored with a warning and
	// fee selection proceeds as if it were unset.
	GasPrice string `koanf:"gas_price"`
	// PriorityFeeGwei is the validator tip for dynamic-fee pricing.
	PriorityFeeGwei uint64 `koanf:"priority_fee_gwei"`

	// Confirm controls whether the tool waits for the transaction
	// receipt after broadcasting.
	Confirm *bool `koanf:"confirm"`
	// ConfirmTimeout bounds the receipt wait.
	ConfirmTimeout time.Duration `koanf:"confirm_timeout"`

	// RetryAttempts is the number of attempts for idempotent RPC reads.
	RetryAttempts int `koanf:"retry_attempts"`
	// RetryDelay is the fixed delay between retry attempts.
	RetryDelay time.Duration `koanf:"retry_delay"`
}

const (
	defaultAmount          = "0.01"
	defaultPriorityFeeGwei = 2
	defaultConfirmTimeout  = 120 * time.Second
	defaultRetryAttempts   = 3
	defaultRetryDelay      = 2 * time.Second
)

// Validate validates the transfer configuration and applies defaults.
func (cfg *TransferConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint not configured")
	}
	if !ethCommon.IsHexAddress(cfg.From) {
		return fmt.Errorf("invalid sender address '%s'", cfg.From)
	}
	if !ethCommon.IsHexAddress(cfg.To) {
		return fmt.Errorf("invalid recipient address '%s'", cfg.To)
	}
	if _, err := cfg.Key(); err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	if cfg.Amount == "" {
		cfg.Amount = defaultAmount
	}
	amount, err := ParseEther(cfg.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount '%s': %w", cfg.Amount, err)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got '%s'", cfg.Amount)
	}
	if cfg.PriorityFeeGwei == 0 {
		cfg.PriorityFeeGwei = defaultPriorityFeeGwei
	}
	if cfg.Confirm == nil {
		confirm := true
		cfg.Confirm = &confirm
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return nil
}

// Key parses the configured sender private key.
func (cfg *TransferConfig) Key() (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
}

// FromAddress returns the canonicalized sender address.
func (cfg *TransferConfig) FromAddress() ethCommon.Address {
	return ethCommon.HexToAddress(cfg.From)
}

// ToAddress returns the canonicalized recipient address.
func (cfg *TransferConfig) ToAddress() ethCommon.Address {
	return ethCommon.HexToAddress(cfg.To)
}

// AmountWei returns the transfer amount in wei. Must be called after
// Validate.
func (cfg *TransferConfig) AmountWei() *big.Int {
	amount, err := ParseEther(cfg.Amount)
	if err != nil {
		panic(fmt.Sprintf("config: amount not validated: %v", err))
	}
	return amount
}

// ParseEther converts a decimal ether string to wei.
func ParseEther(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("not a decimal number")
	}
	wei := new(big.Rat).Mul(r, new(big.Rat).SetInt64(params.Ether))
	if !wei.IsInt() {
		return nil, fmt.Errorf("sub-wei precision")
	}
	return new(big.Int).Set(wei.Num()), nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(file.Provider(f), yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal into config.
	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	// Validate config.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
