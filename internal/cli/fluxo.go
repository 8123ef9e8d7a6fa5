package cli

import (
	"github.com/spf13/cobra"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// FlowOptions flags de "fluxo".
type FlowOptions struct {
	*RootOptions
	GroupID  int64
	StoreIDs []int64
	From     string
	To       string
}

// NewFlowCommand recalcula fluxo_estoque para una ventana.
func NewFlowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fluxo",
		Short: "Recalcula fluxo_estoque de una ventana de días",
		Long: `Recalcula fluxo_estoque para cada producto de las tiendas seleccionadas.

Sin --from/--to usa los últimos días hasta ayer.

Ejemplo:
  fluxo-jobs fluxo --group 3 --from 2025-05-16 --to 2025-05-18
  fluxo-jobs fluxo --store 10 --store 11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := appinv.FlowRequest{GroupID: opts.GroupID, StoreIDs: opts.StoreIDs}
			var err error
			if opts.From != "" {
				if req.From, err = domaininv.ParseDate(opts.From); err != nil {
					return err
				}
				req.To = req.From
			}
			if opts.To != "" {
				if req.To, err = domaininv.ParseDate(opts.To); err != nil {
					return err
				}
				if req.From.IsZero() {
					req.From = req.To
				}
			}

			runner, cleanup, err := opts.runner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := runner.RunFlow(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := printReports(cmd.OutOrStdout(), opts.Format, rep); err != nil {
				return err
			}
			return exitOnFailures(rep)
		},
	}

	cmd.Flags().Int64Var(&opts.GroupID, "group", 0, "grupo de estabelecimentos (default: GROUP_ID)")
	cmd.Flags().Int64SliceVar(&opts.StoreIDs, "store", nil, "system_unit_id explícito (repetible)")
	cmd.Flags().StringVar(&opts.From, "from", "", "primer día YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "último día YYYY-MM-DD")
	cmd.MarkFlagsMutuallyExclusive("group", "store")
	return cmd
}
