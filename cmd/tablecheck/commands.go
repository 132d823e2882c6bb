package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TFMV/tablecheck/api"
	"github.com/TFMV/tablecheck/pkg/core"
)

// newTablesCommand lists the tables each configured side can describe.
func newTablesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "tables [source|target]",
		Short:     "List the tables of the source, the target, or both",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"source", "target"},
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := root.openPair()
			if err != nil {
				return err
			}
			defer pair.Close()

			sides := []struct {
				name string
				src  core.DatasetSource
			}{{"source", pair.Source}, {"target", pair.Target}}

			out := cmd.OutOrStdout()
			for _, side := range sides {
				if len(args) == 1 && args[0] != side.name {
					continue
				}
				tables, err := side.src.Tables(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", side.name, err)
				}
				fmt.Fprintf(out, "%s:\n", side.name)
				for _, t := range tables {
					fmt.Fprintf(out, "  %s\n", t)
				}
			}
			return nil
		},
	}
}

// newNormalizeCommand prints the canonical form of each argument.
func newNormalizeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize VALUE...",
		Short: "Show how values are canonicalized before schema comparison",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := root.normalizer()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range args {
				b, err := json.Marshal(n.Normalize(core.String(a)))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%q\t%s\n", a, b)
			}
			return nil
		},
	}
}

// newServeCommand starts the HTTP API.
func newServeCommand(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tablecheck HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				root.cfg.Server.Port = port
				if err := root.cfg.Server.Validate(); err != nil {
					return err
				}
			}
			policy, err := root.cfg.Validation.Policy()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(api.ServerOptions{
				Port:        strconv.Itoa(root.cfg.Server.Port),
				Prefork:     root.cfg.Server.Prefork,
				Fallthrough: policy,
				Logger:      root.logger,
				Metrics:     root.metrics,
				AccessLog:   true,
			})
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on; overrides server.port")
	return cmd
}
