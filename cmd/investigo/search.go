package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	searchTimeout time.Duration
	searchCompact bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one investigation search and print the response JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if searchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, searchTimeout)
			defer cancel()
		}

		eng, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer eng.close()

		resp := eng.search.Search(ctx, strings.Join(args, " "))

		enc := json.NewEncoder(cmd.OutOrStdout())
		if !searchCompact {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return resp.Err()
	},
}

func init() {
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 0, "cancel the search after this long; partial results are returned")
	searchCmd.Flags().BoolVar(&searchCompact, "compact", false, "print single-line JSON")
}
