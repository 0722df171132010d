// Executable eth-transfer sends a single native-currency transfer
// to an Ethereum network.
package main

import (
	"github.com/layerist/ethereum-transfer-script/cmd"
)

func main() {
	cmd.Execute()
}
