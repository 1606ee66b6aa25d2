package main

import (
	"context"
	"fmt"
	"os"

	"wealthwise/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	open := func(ctx context.Context) (*cli.App, func(), error) {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return nil, nil, err
		}
		logger := cli.SetupLogger(cfg.LogLevel, os.Stderr)

		rt, err := cli.OpenRuntime(ctx, cfg, logger, true)
		if err != nil {
			return nil, nil, err
		}
		advisor, _, closeAdvisor := cli.NewAdvisor(ctx, cfg, logger)
		release := func() {
			_ = closeAdvisor()
			_ = rt.Close()
		}
		return &cli.App{Tracker: rt.Tracker, Advisor: advisor}, release, nil
	}

	if err := cli.NewRootCommand(open).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
