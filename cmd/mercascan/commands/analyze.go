package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mercascan/mercascan/cmd/mercascan/ui"
	"github.com/mercascan/mercascan/internal/kits"
	"github.com/mercascan/mercascan/internal/llm"
	"github.com/mercascan/mercascan/internal/market"
	"github.com/mercascan/mercascan/internal/marketplace"
	"github.com/mercascan/mercascan/internal/pdfsource"
	"github.com/mercascan/mercascan/internal/pipeline"
	"github.com/mercascan/mercascan/internal/scoring"
	"github.com/mercascan/mercascan/internal/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <catalogo.pdf>",
	Short: "Analisa os produtos de um catálogo PDF",
	Long: `Extrai os produtos do catálogo, pesquisa cada um no Mercado Livre,
pontua a viabilidade de venda e exporta as planilhas de análise e de kits.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	src, err := pdfsource.NewFitzSource(args[0], log)
	if err != nil {
		return err
	}

	cacheClient := openCache(cfg, log)
	defer cacheClient.Close()
	scraper := marketplace.NewClient(cfg.Marketplace, cacheClient, cfg.Cache.TTL, log)
	classifier := market.NewClassifier(cfg.Categories)

	rule := scoring.NewRuleEngine(log)
	var engine scoring.Engine = rule
	var completer llm.Completer
	if cfg.Completion.Enabled() {
		completer = llm.NewClient(cfg.Completion, log)
		if cfg.Scoring.UseAI {
			engine = scoring.NewAIEngine(completer, rule, cfg.Scoring, log)
		}
	} else {
		ui.Warning("Chave de API não configurada, usando análise por regras")
	}
	composer := kits.NewComposer(cfg.Kits, classifier, completer, log)

	var store *storage.Store
	if cfg.History.Enabled {
		store, err = storage.Open(cfg.History.Path, log)
		if err != nil {
			log.Warn().Err(err).Msg("history store unavailable, run will not be recorded")
		} else {
			defer store.Close()
		}
	}

	p := pipeline.New(cfg, scraper, engine, classifier, composer, store, log)

	// The analyze stage has a known product count and gets a progress bar;
	// kit composition and export have no usable progress and get a spinner.
	var bar *ui.ProgressBar
	var spin *ui.Spinner
	p.OnProgress(func(pr pipeline.Progress) {
		switch pr.Stage {
		case "extract":
			ui.Info("Extraindo produtos de %s", args[0])
		case "analyze":
			if bar == nil {
				bar = ui.NewProgressBar(int64(pr.Total), "Analisando produtos")
			}
			bar.Describe(fmt.Sprintf("Analisando %s", pr.Product))
			bar.Set(int64(pr.Index))
		case "kits":
			if bar != nil {
				bar.Finish()
			}
			spin = ui.NewSpinner("Montando kits promocionais")
			spin.Start()
		case "report":
			if spin != nil {
				spin.Stop()
			}
			spin = ui.NewSpinner("Exportando planilhas")
			spin.Start()
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, src, args[0])
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result *pipeline.Result) {
	found := 0
	for _, a := range result.Analyses {
		if a.Found {
			found++
		}
	}

	ui.Section("Resumo da análise")
	ui.KeyValue("Produtos extraídos", fmt.Sprintf("%d", len(result.Analyses)))
	ui.KeyValue("Encontrados no Mercado Livre", fmt.Sprintf("%d", found))
	ui.KeyValue("Kits sugeridos", fmt.Sprintf("%d", len(result.Kits)))

	rows := make([][]string, 0, len(result.Analyses))
	for _, a := range result.Analyses {
		if !a.Found {
			continue
		}
		rows = append(rows, []string{
			a.ProductName,
			fmt.Sprintf("%.1f", a.OverallScore),
			string(a.Recommendation),
		})
	}
	if len(rows) > 0 {
		ui.Section("Produtos analisados")
		ui.Table([]string{"Produto", "Pontuação", "Recomendação"}, rows)
	}

	ui.Success("Análise exportada para %s", result.ProductsPath)
	if result.KitsPath != "" {
		ui.Success("Kits exportados para %s", result.KitsPath)
	}
}
