package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabscope/tabctl/internal/bridge"
	"github.com/tabscope/tabctl/internal/logx"
)

var bridgeLabel string

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the browser bridge (spawned by the browser)",
	Long: `Run the native-messaging bridge for one browser.

The browser launches this process itself and talks framed JSON on
stdin/stdout, so it is not meant to be started by hand. It binds the
per-browser unix socket that the other tabctl commands connect to, and
exits when the browser closes the channel.`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeLabel, "label", "chrome", "Browser label until hello arrives")
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logx.SetLevel(cfg.LogLevel)

	b := bridge.New(bridge.Config{
		SocketPath:     bridge.SocketPath(cfg.SocketDir, bridgeLabel),
		Label:          bridgeLabel,
		RequestTimeout: cfg.RequestTimeout,
	}, os.Stdin, os.Stdout)

	if err := b.Start(); err != nil {
		return err
	}

	// Stop on SIGINT/SIGTERM; stdin EOF stops the bridge on its own.
	// Every path removes the socket file and exits 0.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		b.Stop()
	}()

	b.Wait()
	return nil
}
