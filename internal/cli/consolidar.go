package cli

import (
	"time"

	"github.com/spf13/cobra"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// ConsolidateOptions flags de "consolidar".
type ConsolidateOptions struct {
	*RootOptions
	GroupID  int64
	StoreIDs []int64
	Date     string
	Force    bool
	All      bool
}

// NewConsolidateCommand consolida un día en diferencas_estoque.
func NewConsolidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConsolidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "consolidar",
		Short: "Consolida un día en diferencas_estoque y actualiza el saldo maestro",
		Long: `Consolida el día indicado (por defecto ayer) para un grupo o para todos
los grupos marcados para consolidación. Las tiendas ya consolidadas se omiten
salvo con --force, que borra y recalcula el día.

Ejemplo:
  fluxo-jobs consolidar --group 3
  fluxo-jobs consolidar --all --date 2025-05-18 --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var date time.Time
			if opts.Date != "" {
				var err error
				if date, err = domaininv.ParseDate(opts.Date); err != nil {
					return err
				}
			}

			runner, cleanup, err := opts.runner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if opts.All {
				reps, runErr := runner.RunAllGroups(cmd.Context(), date, opts.Force)
				if err := printReports(cmd.OutOrStdout(), opts.Format, reps...); err != nil {
					return err
				}
				if runErr != nil {
					return runErr
				}
				return exitOnFailures(reps...)
			}

			rep, err := runner.RunConsolidation(cmd.Context(), appinv.ConsolidationRequest{
				GroupID:  opts.GroupID,
				StoreIDs: opts.StoreIDs,
				Date:     date,
				Force:    opts.Force,
			})
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
	cmd.Flags().StringVar(&opts.Date, "date", "", "día YYYY-MM-DD (default: ayer)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "recalcula aunque el día ya esté consolidado")
	cmd.Flags().BoolVar(&opts.All, "all", false, "todos los grupos con consolida=1")
	cmd.MarkFlagsMutuallyExclusive("group", "store", "all")
	return cmd
}
