package transfer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// baseFeeMultiplier protects against base-fee escalation between fee
// estimation and inclusion.
const baseFeeMultiplier = 2

// FeeQuote is the per-gas pricing selected for a transaction. Exactly
// one of the legacy or dynamic variants is set.
type FeeQuote struct {
	// GasPrice is the flat per-gas price of a legacy quote.
	GasPrice *big.Int
	// GasFeeCap and GasTipCap are the bounds of a dynamic quote.
	GasFeeCap *big.Int
	GasTipCap *big.Int
}

// FixedFee returns a legacy quote with a flat gas price.
func FixedFee(price *big.Int) FeeQuote {
	return FeeQuote{GasPrice: price}
}

// DynamicFee returns an EIP-1559 quote.
func DynamicFee(feeCap, tipCap *big.Int) FeeQuote {
	return FeeQuote{GasFeeCap: feeCap, GasTipCap: tipCap}
}

// Dynamic reports whether the quote uses dynamic-fee pricing.
func (q FeeQuote) Dynamic() bool {
	return q.GasFeeCap != nil
}

// PerGasCeiling returns the worst-case per-gas cost of the quote.
func (q FeeQuote) PerGasCeiling() *big.Int {
	if q.Dynamic() {
		return q.GasFeeCap
	}
	return q.GasPrice
}

// selectFee picks the fee model for this transfer. An operator-pinned
// gas price wins; otherwise dynamic pricing is attempted, with the
// network-suggested legacy price as the hard fallback.
func (t *Transfer) selectFee(ctx context.Context) (FeeQuote, error) {
	if t.gasPrice != "" {
		price, ok := new(big.Int).SetString(t.gasPrice, 10)
		if ok && price.Sign() > 0 {
			t.logger.Info("using custom legacy gas price", "gas_price_wei", price.String())
			return FixedFee(price), nil
		}
		t.logger.Warn("invalid gas_price, ignoring", "gas_price", t.gasPrice)
	}

	if quote, ok := t.dynamicFee(ctx); ok {
		return quote, nil
	}

	price, err := RetryValue(ctx, t.retrier, "fetch legacy gas price", t.client.SuggestGasPrice)
	if err != nil {
		return FeeQuote{}, err
	}
	return FixedFee(price), nil
}

// dynamicFee attempts EIP-1559 pricing off the latest block's base fee.
// Failures here are advisory; the caller falls through to the legacy
// path.
func (t *Transfer) dynamicFee(ctx context.Context) (FeeQuote, bool) {
	header, err := t.client.HeaderByNumber(ctx, nil)
	if err != nil {
		t.logger.Debug("dynamic fee calculation failed", "err", err)
		return FeeQuote{}, false
	}
	if header.BaseFee == nil {
		return FeeQuote{}, false
	}

	tip := new(big.Int).Mul(new(big.Int).SetUint64(t.priorityFeeGwei), big.NewInt(params.GWei))
	feeCap := new(big.Int).Mul(header.BaseFee, big.NewInt(baseFeeMultiplier))
	feeCap.Add(feeCap, tip)
	return DynamicFee(feeCap, tip), true
}
