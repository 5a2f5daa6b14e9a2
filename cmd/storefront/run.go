package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
)

const stopTimeout = 30 * time.Second

func run(ctx context.Context, app *fx.App) {
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start payments service: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	err := app.Stop(stopCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop payments service: %v\n", err)
		os.Exit(1)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
