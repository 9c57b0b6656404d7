package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aide-sh/aide/internal/approval"
	"github.com/aide-sh/aide/internal/bus"
	"github.com/aide-sh/aide/internal/client"
	"github.com/aide-sh/aide/internal/config"
	"github.com/aide-sh/aide/internal/core"
	"github.com/aide-sh/aide/internal/extension"
	"github.com/aide-sh/aide/internal/hooks"
	"github.com/aide-sh/aide/internal/log"
	"github.com/aide-sh/aide/internal/toolcall"

	"github.com/google/uuid"
)

var version = "0.1.0"

// newClient wires the model backend. Providers register themselves here at
// build time; the coordination core only sees the client.Client interface.
var newClient = func() (client.Client, error) {
	return nil, fmt.Errorf("no model provider configured")
}

func init() {
	// Load .env if present, silently.
	_ = godotenv.Load()
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "aide [message]",
	Short:   "Aide - AI coding assistant for the terminal",
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.TrimSpace(strings.Join(args, " "))
		if message == "" {
			return cmd.Help()
		}
		return runTurn(message)
	},
}

// runTurn assembles the session and drives one turn for the given message.
func runTurn(message string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	loader := config.NewLoader()
	settings, err := loader.Load()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	registry := hooks.NewRegistry(loader, extension.LoadLayers(".aide/extensions")...)
	if err := registry.Initialize(); err != nil {
		return err
	}

	sessionID := uuid.NewString()
	b := bus.New()
	dispatcher := hooks.NewDispatcher(registry, hooks.NewRunner(sessionID, cwd, nil), b)

	// Answer confirmation requests on the terminal.
	b.Subscribe(bus.KindToolConfirmationRequest, func(msg bus.Message) {
		req, ok := msg.(bus.ToolConfirmationRequest)
		if !ok {
			return
		}
		fmt.Printf("Allow %s? [y/N] ", req.ToolName)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		outcome := bus.ConfirmationDenied
		if strings.EqualFold(strings.TrimSpace(line), "y") {
			outcome = bus.ConfirmationApproved
		}
		b.Publish(bus.ToolConfirmationResponse{CorrelationID: req.CorrelationID, Outcome: outcome})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher.RunSessionStart(ctx, "startup")
	defer dispatcher.RunSessionEnd(context.WithoutCancel(ctx), "exit")

	loop := &core.Loop{
		Client:     c,
		Bus:        b,
		Dispatcher: dispatcher,
		Aggregator: toolcall.NewAggregator(b),
		Approval:   approval.NewManager(b),
		Settings:   settings,
		Tools:      map[string]core.ToolFunc{},
	}

	result, err := loop.RunTurn(ctx, message)
	if err != nil {
		return err
	}
	if result.SystemMessage != "" {
		fmt.Fprintln(os.Stderr, result.SystemMessage)
	}
	fmt.Println(result.Content)
	return nil
}
