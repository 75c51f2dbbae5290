package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gossipchain/gossipchain/internal/node"
	"github.com/gossipchain/gossipchain/internal/utils/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "gossipchain",
		Short: "run a proof-of-work ledger node gossiping over libp2p",
		RunE:  run,
	}
)

func Execute() error {
	rootCmd.Flags().BoolP("verbose", "v", false, "increase verbosity")
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))

	rootCmd.Flags().IntP("difficulty", "d", 3, "mining difficulty (leading zero hex digits)")
	viper.BindPFlag("chain.difficulty", rootCmd.Flags().Lookup("difficulty"))

	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := node.NewNode(ctx,
		node.WithDefaultOptions(ctx),
	)
	if err != nil {
		return errors.Wrap(err, "initing node")
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- n.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.WithError(err).Error("node stopped")
		}
		return err
	case <-waitExit():
		logging.Entry().Warn("shutting down")
		cancel()
		return nil
	}
}

func waitExit() <-chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return sigs
}
