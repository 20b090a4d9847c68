package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/rahul/taskflow/internal/gateway"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/store"
	"github.com/spf13/cobra"
)

const heartbeatInterval = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the enabled gateways (telegram, discord, http)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	interactive := observability.IsTerminal(os.Stdout) && !jsonOut

	if interactive {
		observability.PrintBanner(os.Stdout)
	}

	a, err := newApp(ctx, cfgFile, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := store.NewSessionStore(a.cfg.Memory.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessions.Close()

	handler := gateway.NewHandler(sessions, a.workflow, a.feedback)
	gateways, err := buildGateways(a, handler)
	if err != nil {
		return err
	}
	if len(gateways) == 0 {
		return fmt.Errorf("no gateway is enabled; enable telegram, discord or http in %s", cfgFile)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.status.Heartbeat()
	go heartbeat(ctx, a)
	if interactive {
		go statusLine(ctx, a.status)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(gateways))
	for _, g := range gateways {
		wg.Add(1)
		go func(g gateway.Gateway) {
			defer wg.Done()
			log.Printf("Starting %s gateway", g.Name())
			if err := g.Start(ctx); err != nil {
				errCh <- fmt.Errorf("%s gateway: %w", g.Name(), err)
				cancel()
			}
		}(g)
	}

	wg.Wait()
	close(errCh)
	if interactive {
		fmt.Println()
	}
	log.Println("Shut down.")
	return <-errCh
}

func buildGateways(a *app, handler *gateway.Handler) ([]gateway.Gateway, error) {
	var out []gateway.Gateway

	if gc, ok := a.cfg.GetGatewayConfig("telegram"); ok {
		tg, err := gateway.NewTelegramGateway(gc.Token, handler)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		out = append(out, tg)
	}

	if gc, ok := a.cfg.GetGatewayConfig("discord"); ok {
		dg, err := gateway.NewDiscordGateway(gc.Token, handler)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		out = append(out, dg)
	}

	if gc, ok := a.cfg.GetGatewayConfig("http"); ok {
		out = append(out, gateway.NewHTTPGateway(gc.Addr, a.workflow, a.feedback, a.status))
	}

	return out, nil
}

func heartbeat(ctx context.Context, a *app) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.status.Heartbeat()
			a.logger.LogHeartbeat()
		}
	}
}

func statusLine(ctx context.Context, status *observability.Status) {
	started := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Printf("\r\033[K%s", observability.StatusLine(status, started))
		}
	}
}
