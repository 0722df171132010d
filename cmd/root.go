// Package cmd implements commands for the eth-transfer executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layerist/ethereum-transfer-script/chain"
	"github.com/layerist/ethereum-transfer-script/cmd/common"
	"github.com/layerist/ethereum-transfer-script/config"
	"github.com/layerist/ethereum-transfer-script/log"
	"github.com/layerist/ethereum-transfer-script/transfer"
)

var (
	// Path to the configuration file.
	configFile string

	rootCmd = &cobra.Command{
		Use:   "eth-transfer",
		Short: "Sends a single ETH value transfer",
		Run:   rootMain,
	}
)

func rootMain(cmd *cobra.Command, args []string) {
	// Initialize config.
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}

	// Initialize common environment.
	if err = common.Init(cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := common.RootLogger()

	ctx := context.Background()

	client, err := chain.Dial(ctx, cfg.Transfer.Endpoint)
	if err != nil {
		logger.Error("failed to connect to endpoint", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	t, err := transfer.New(cfg.Transfer, client, logger)
	if err != nil {
		logger.Error("failed to initialize transfer", "err", err)
		os.Exit(1)
	}

	res, err := t.Send(ctx)
	if err != nil {
		logger.Error("transfer failed", "err", err)
		os.Exit(1)
	}

	// The transaction hash is the tool's output; confirmation status
	// is advisory.
	fmt.Println(res.TxHash.Hex())
}

// Execute spawns the main entry point after handling the config file.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "./conf/transfer.yml", "path to the config.yml file")
}
