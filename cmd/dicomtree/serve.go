package main

import (
	"context"

	"github.com/mrsinham/dicomtree/internal/api"
	"github.com/mrsinham/dicomtree/internal/metrics"
	"github.com/mrsinham/dicomtree/internal/scan"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Scan a directory and serve the collection over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := metrics.New()

			out, err := a.scan(cmd, args, flags, m)
			if err != nil {
				return err
			}
			printSummary(cmd.ErrOrStderr(), a.root(args), out.Summary)

			root := a.root(args)
			rescan := func(ctx context.Context) (scan.Outcome, error) {
				return a.newScanner(nil, m).Scan(ctx, root)
			}
			store := api.NewStore(out.Collection, out.Summary)
			e := api.NewServer(api.NewHandler(store, rescan), m, a.log)

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return api.Serve(ctx, e, a.cfg.Server.Addr, a.log)
		},
	}
	flags.register(cmd)
	cmd.Flags().String("addr", "", "Listen address (default from server.addr)")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
