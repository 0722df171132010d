// Package transfer implements the fee-selection, assembly, and
// submission engine for a single native-currency value transfer.
package transfer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/layerist/ethereum-transfer-script/chain"
	"github.com/layerist/ethereum-transfer-script/config"
	"github.com/layerist/ethereum-transfer-script/log"
	"github.com/layerist/ethereum-transfer-script/metrics"
)

const (
	moduleName = "transfer"

	receiptPollInterval = 2 * time.Second
)

// Transfer is a one-shot value transfer. All chain state (nonce, fees,
// balance, chain id) is fetched fresh inside Send; nothing is cached
// across invocations.
type Transfer struct {
	client  chain.Client
	logger  *log.Logger
	metrics metrics.TransferMetrics
	retrier *Retrier

	from   ethCommon.Address
	to     ethCommon.Address
	amount *big.Int
	key    *ecdsa.PrivateKey

	gasPrice        string
	priorityFeeGwei uint64

	confirm        bool
	confirmTimeout time.Duration
	pollInterval   time.Duration

	sleep func(time.Duration)
}

// Result is the outcome of a broadcast transfer. BlockNumber and
// Status are only meaningful when Confirmed is true.
type Result struct {
	TxHash      ethCommon.Hash
	Confirmed   bool
	BlockNumber uint64
	Status      uint64
}

// New creates a transfer from validated configuration.
func New(cfg *config.TransferConfig, client chain.Client, logger *log.Logger) (*Transfer, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	m := metrics.NewDefaultTransferMetrics(moduleName)
	logger = logger.WithModule(moduleName)
	return &Transfer{
		client:          chain.WithMetrics(client, m),
		logger:          logger,
		metrics:         m,
		retrier:         NewRetrier(cfg.RetryAttempts, cfg.RetryDelay, logger),
		from:            cfg.FromAddress(),
		to:              cfg.ToAddress(),
		amount:          cfg.AmountWei(),
		key:             key,
		gasPrice:        cfg.GasPrice,
		priorityFeeGwei: cfg.PriorityFeeGwei,
		confirm:         *cfg.Confirm,
		confirmTimeout:  cfg.ConfirmTimeout,
		pollInterval:    receiptPollInterval,
		sleep:           time.Sleep,
	}, nil
}

// Send selects a fee, assembles, signs, and broadcasts the transfer,
// then optionally waits for its receipt. The returned Result carries
// the transaction hash even when the confirmation window elapses.
func (t *Transfer) Send(ctx context.Context) (*Result, error) {
	logger := t.logger.With(
		"run_id", uuid.New().String(),
		"from", t.from.Hex(),
		"to", t.to.Hex(),
	)
	logger.Info("sending transfer", "value_wei", t.amount.String())

	quote, err := t.selectFee(ctx)
	if err != nil {
		return nil, err
	}

	tx, chainID, err := t.build(ctx, quote)
	if err != nil {
		return nil, err
	}

	balance, err := RetryValue(ctx, t.retrier, "fetch balance", func(ctx context.Context) (*big.Int, error) {
		return t.client.BalanceAt(ctx, t.from, nil)
	})
	if err != nil {
		return nil, err
	}
	if err := CheckAffordable(balance, tx); err != nil {
		t.metrics.Submissions("rejected").Inc()
		return nil, err
	}

	// Signing is local and deterministic; a failure here is a key
	// problem, not a transient one.
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), t.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	// Broadcast exactly once. A failed SendTransaction may still have
	// landed, so it is classified, never retried.
	if err := t.client.SendTransaction(ctx, signed); err != nil {
		t.metrics.Submissions("rejected").Inc()
		if isInsufficientFunds(err) {
			// The balance moved between the pre-flight check and
			// the broadcast.
			return nil, &InsufficientBalanceError{
				Required:  requiredBalance(signed),
				Available: balance,
			}
		}
		return nil, &SubmissionError{Err: err}
	}
	t.metrics.Submissions("broadcast").Inc()

	res := &Result{TxHash: signed.Hash()}
	logger.Info("transaction broadcast", "tx_hash", res.TxHash.Hex())

	if t.confirm {
		t.waitConfirmed(ctx, logger, res)
	}
	return res, nil
}

// waitConfirmed polls for the transaction receipt within a bounded
// window. Not finding the receipt yet is not an error; window expiry
// leaves the result unconfirmed and the caller keeps the hash.
func (t *Transfer) waitConfirmed(ctx context.Context, logger *log.Logger, res *Result) {
	logger.Info("waiting for confirmation", "timeout", t.confirmTimeout.String())

	polls := int(t.confirmTimeout / t.pollInterval)
	if polls < 1 {
		polls = 1
	}
	for i := 0; i < polls; i++ {
		receipt, err := t.client.TransactionReceipt(ctx, res.TxHash)
		switch {
		case err == nil:
			res.Confirmed = true
			res.BlockNumber = receipt.BlockNumber.Uint64()
			res.Status = receipt.Status
			logger.Info("transaction confirmed",
				"tx_hash", res.TxHash.Hex(),
				"block", res.BlockNumber,
				"status", res.Status,
			)
			return
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet.
		default:
			logger.Warn("receipt query failed", "err", err)
		}
		if i < polls-1 {
			t.sleep(t.pollInterval)
		}
	}
	logger.Warn("confirmation window elapsed", "tx_hash", res.TxHash.Hex())
}
