// Package pipeline orchestrates a full document analysis: extract products
// from the source, look each one up on the marketplace, score it, compose
// kits and write the reports. Products are processed sequentially; a product
// whose lookup fails is recorded as not found and never aborts the batch.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
	"github.com/mercascan/mercascan/internal/extract"
	"github.com/mercascan/mercascan/internal/kits"
	"github.com/mercascan/mercascan/internal/market"
	"github.com/mercascan/mercascan/internal/marketplace"
	"github.com/mercascan/mercascan/internal/pdfsource"
	"github.com/mercascan/mercascan/internal/report"
	"github.com/mercascan/mercascan/internal/scoring"
	"github.com/mercascan/mercascan/internal/storage"
)

// Progress is one step notification for interactive frontends.
type Progress struct {
	Stage   string // extract, analyze, kits, report
	Product string // set during the analyze stage
	Index   int    // 1-based, set during the analyze stage
	Total   int
}

// ProgressFunc receives progress notifications. May be nil.
type ProgressFunc func(Progress)

// Result is what a completed run produced.
type Result struct {
	Analyses     []domain.Analysis
	Kits         []domain.Kit
	ProductsPath string
	KitsPath     string
}

// Pipeline wires the analysis stages together.
type Pipeline struct {
	cfg        *config.Config
	extractor  *extract.Extractor
	scraper    *marketplace.Client
	engine     scoring.Engine
	classifier *market.Classifier
	composer   *kits.Composer
	exporter   *report.Exporter
	store      *storage.Store // nil when history is disabled or unavailable
	log        zerolog.Logger
	progress   ProgressFunc
}

func New(cfg *config.Config, scraper *marketplace.Client, engine scoring.Engine, classifier *market.Classifier, composer *kits.Composer, store *storage.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		extractor:  extract.New(log),
		scraper:    scraper,
		engine:     engine,
		classifier: classifier,
		composer:   composer,
		exporter:   report.NewExporter(log),
		store:      store,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// OnProgress registers a progress callback for interactive frontends.
func (p *Pipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

func (p *Pipeline) notify(pr Progress) {
	if p.progress != nil {
		p.progress(pr)
	}
}

// Run analyzes the document behind src and writes the reports. sourcePath
// is recorded in the run history, nothing more. The returned error concerns
// the run as a whole (unreadable document, no products, failed export);
// per-product lookup failures only mark that product as not found.
func (p *Pipeline) Run(ctx context.Context, src pdfsource.Source, sourcePath string) (*Result, error) {
	started := time.Now()

	p.notify(Progress{Stage: "extract"})
	pages, err := src.Pages(ctx)
	if err != nil {
		return nil, err
	}
	records := p.extractor.Extract(pages)
	if len(records) == 0 {
		return nil, domain.InputError("no products recognized in document", nil)
	}

	analyses := make([]domain.Analysis, 0, len(records))
	for i, record := range records {
		if ctx.Err() != nil {
			p.log.Warn().Int("analyzed", i).Msg("run canceled between products")
			break
		}
		p.notify(Progress{Stage: "analyze", Product: record.Description, Index: i + 1, Total: len(records)})
		analyses = append(analyses, p.analyzeProduct(ctx, record))
	}

	p.notify(Progress{Stage: "kits"})
	composed := p.composer.Compose(ctx, analyses)

	p.notify(Progress{Stage: "report"})
	result := &Result{Analyses: analyses, Kits: composed}
	exportErr := p.export(result)

	p.recordRun(ctx, sourcePath, started, result)
	return result, exportErr
}

// analyzeProduct runs the per-product stages: marketplace search, seller
// details for the first few listings, fee computation on the market average
// and scoring. Every failure degrades toward "not found".
func (p *Pipeline) analyzeProduct(ctx context.Context, record domain.ProductRecord) domain.Analysis {
	listings := p.scraper.Search(ctx, record.Description)

	var sellers []domain.SellerSignal
	lookups := min(p.cfg.Marketplace.DetailLookups, len(listings))
	for _, listing := range listings[:lookups] {
		if listing.Link == "" {
			continue
		}
		sellers = append(sellers, p.scraper.Detail(ctx, listing.Link))
	}

	category := p.classifier.Classify(record.Description)

	var fees domain.FeeBreakdown
	if len(listings) > 0 {
		metrics := market.Aggregate(listings)
		fees = market.ComputeFees(decimal.NewFromFloat(metrics.AvgPrice), category)
	}

	analysis := p.engine.Analyze(ctx, record, listings, sellers, fees)
	analysis.Category = category

	p.log.Debug().
		Str("product", record.Description).
		Bool("found", analysis.Found).
		Float64("score", analysis.OverallScore).
		Msg("product analyzed")
	return analysis
}

func (p *Pipeline) export(result *Result) error {
	productsPath := filepath.Join(p.cfg.Report.OutputDir, p.cfg.Report.ProductsFile)
	written, err := p.exporter.Export(report.BuildProductReport(result.Analyses), productsPath)
	if err != nil {
		return err
	}
	result.ProductsPath = written

	if len(result.Kits) == 0 {
		return nil
	}
	kitsPath := filepath.Join(p.cfg.Report.OutputDir, p.cfg.Report.KitsFile)
	written, err = p.exporter.Export(report.BuildKitReport(result.Kits), kitsPath)
	if err != nil {
		return err
	}
	result.KitsPath = written
	return nil
}

// recordRun persists history when a store is available. History is best
// effort: failures are logged and the run result stands.
func (p *Pipeline) recordRun(ctx context.Context, sourcePath string, started time.Time, result *Result) {
	if p.store == nil {
		return
	}

	found := 0
	rows := make([]storage.RunAnalysis, 0, len(result.Analyses))
	for _, a := range result.Analyses {
		if a.Found {
			found++
		}
		rows = append(rows, storage.RunAnalysis{
			ProductName:    a.ProductName,
			ProductCode:    a.ProductCode,
			Category:       a.Category,
			Found:          a.Found,
			AvgPrice:       a.PriceAnalysis.Metric,
			MarginPercent:  a.MarginPercent,
			OverallScore:   a.OverallScore,
			Recommendation: string(a.Recommendation),
		})
	}

	run := &storage.Run{
		SourcePath:   sourcePath,
		ProductCount: len(result.Analyses),
		FoundCount:   found,
		KitCount:     len(result.Kits),
		StartedAt:    started,
		FinishedAt:   time.Now(),
	}
	if err := p.store.SaveRun(ctx, run, rows); err != nil {
		p.log.Warn().Err(err).Msg("recording run history failed")
	}
}
