package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paycalc/internal/cli"
	"paycalc/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(config.Load()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "payrollctl:", err)
		stop()
		os.Exit(1)
	}
}
