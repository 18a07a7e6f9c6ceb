package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mercascan/mercascan/cmd/mercascan/ui"
	"github.com/mercascan/mercascan/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lista as análises mais recentes",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "número de execuções a listar")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		ui.Warning("Histórico desativado na configuração")
		return nil
	}
	log := newLogger(cfg)

	store, err := storage.Open(cfg.History.Path, log)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.Info("Nenhuma análise registrada ainda")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04"),
			run.SourcePath,
			fmt.Sprintf("%d", run.ProductCount),
			fmt.Sprintf("%d", run.FoundCount),
			fmt.Sprintf("%d", run.KitCount),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
		})
	}
	ui.Table([]string{"Data", "Catálogo", "Produtos", "Encontrados", "Kits", "Duração"}, rows)
	return nil
}
