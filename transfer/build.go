package transfer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// build assembles the unsigned transaction for this transfer. The
// nonce and chain id are fetched fresh on every call; a stale nonce
// must never survive into a later send.
func (t *Transfer) build(ctx context.Context, quote FeeQuote) (*types.Transaction, *big.Int, error) {
	// The pending view accounts for the sender's not-yet-mined
	// transactions.
	nonce, err := RetryValue(ctx, t.retrier, "fetch nonce", func(ctx context.Context) (uint64, error) {
		return t.client.PendingNonceAt(ctx, t.from)
	})
	if err != nil {
		return nil, nil, err
	}

	gasLimit := t.estimateGas(ctx)

	chainID, err := RetryValue(ctx, t.retrier, "fetch chain id", t.client.ChainID)
	if err != nil {
		return nil, nil, err
	}

	var tx *types.Transaction
	if quote.Dynamic() {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: quote.GasTipCap,
			GasFeeCap: quote.GasFeeCap,
			Gas:       gasLimit,
			To:        &t.to,
			Value:     t.amount,
		})
	} else {
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: quote.GasPrice,
			Gas:      gasLimit,
			To:       &t.to,
			Value:    t.amount,
		})
	}
	return tx, chainID, nil
}

// estimateGas simulates the transfer to size the gas limit. A plain
// value transfer costs a protocol-defined 21000 gas, so estimation
// failure degrades to that instead of aborting.
func (t *Transfer) estimateGas(ctx context.Context) uint64 {
	gas, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &t.to,
		Value: t.amount,
	})
	if err != nil {
		t.logger.Warn("gas estimation failed, using fallback",
			"err", err,
			"fallback", params.TxGas,
		)
		return params.TxGas
	}
	return gas
}
