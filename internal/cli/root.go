// Package cli comandos del ejecutable fluxo-jobs (ejecuciones manuales sin pasar por HTTP).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fluxo-estoque/internal/application/dto"
	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/application/jobs"
)

// Runner ejecuciones disponibles desde el CLI (implementado por jobs.Service).
type Runner interface {
	RunFlow(ctx context.Context, req appinv.FlowRequest) (*appinv.BatchReport, error)
	RunConsolidation(ctx context.Context, req appinv.ConsolidationRequest) (*appinv.BatchReport, error)
	RunAllGroups(ctx context.Context, date time.Time, force bool) ([]*appinv.BatchReport, error)
}

// Connector construye el Runner; el cleanup libera conexiones.
type Connector func(ctx context.Context) (Runner, func(), error)

// RootOptions flags globales.
type RootOptions struct {
	Format  string // "text" | "json"
	Connect Connector
}

// NewRootCommand construye el comando raíz.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{Connect: connect}

	cmd := &cobra.Command{
		Use:   "fluxo-jobs",
		Short: "Conciliación de fluxo de estoque",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("formato %q inválido: text|json", opts.Format)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (text|json)")

	cmd.AddCommand(NewFlowCommand(opts))
	cmd.AddCommand(NewConsolidateCommand(opts))
	return cmd
}

func (o *RootOptions) runner(ctx context.Context) (Runner, func(), error) {
	if o.Connect == nil {
		return nil, nil, fmt.Errorf("sin conector configurado")
	}
	return o.Connect(ctx)
}

// printReports escribe los reportes en el formato elegido.
func printReports(w io.Writer, format string, reps ...*appinv.BatchReport) error {
	if format == "json" {
		out := make([]dto.BatchReportResponse, 0, len(reps))
		for _, r := range reps {
			out = append(out, dto.ToBatchReportResponse(r))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, r := range reps {
		if _, err := fmt.Fprintln(w, jobs.Summary(r)); err != nil {
			return err
		}
		for _, s := range r.Stores {
			for _, f := range s.Failures {
				if _, err := fmt.Fprintf(w, "  loja %d produto %s: %s %s\n", f.StoreID, f.ProductCode, f.Status, f.Reason); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// exitOnFailures convierte fallos parciales en error de salida para que cron/CI lo detecte.
func exitOnFailures(reps ...*appinv.BatchReport) error {
	for _, r := range reps {
		if r.HasFailures() {
			return fmt.Errorf("ejecución %s con fallos", r.RunID)
		}
	}
	return nil
}
