package transfer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// CheckAffordable verifies the sender balance covers the transfer value
// plus the worst-case fee. The check is pessimistic: it always prices
// the full gas limit at the fee ceiling. A balance race can still make
// the node reject the broadcast; that rejection is classified the same
// way.
func CheckAffordable(balance *big.Int, tx *types.Transaction) error {
	required := requiredBalance(tx)
	if balance.Cmp(required) < 0 {
		return &InsufficientBalanceError{
			Required:  required,
			Available: new(big.Int).Set(balance),
		}
	}
	return nil
}

// requiredBalance is gasLimit * feeCeiling + value. GasFeeCap returns
// the flat gas price for legacy transactions.
func requiredBalance(tx *types.Transaction) *big.Int {
	required := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), tx.GasFeeCap())
	return required.Add(required, tx.Value())
}
