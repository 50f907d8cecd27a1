package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"susu-app-go/pkg/logger"
)

var Version = "dev"

func main() {
	log := logger.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "susu-app",
		Short:         "Rotating savings group backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(log))
	rootCmd.AddCommand(migrateCmd(log))
	rootCmd.AddCommand(payoutsCmd(log))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Critical("app: command failed", "err", err)
		stop()
		os.Exit(1)
	}
}
