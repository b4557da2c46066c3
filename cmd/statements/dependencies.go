package main

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/FACorreiaa/echo-statements/internal/domain/categorization"
	"github.com/FACorreiaa/echo-statements/internal/domain/classification"
	importhandler "github.com/FACorreiaa/echo-statements/internal/domain/import/handler"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/pkg/config"
	"github.com/FACorreiaa/echo-statements/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Enrichment
	Rules    *categorization.RuleEnricher
	Pipeline *classification.Pipeline

	// Parsing
	Registry         *parser.Registry
	StatementService *importservice.StatementService

	// Handlers
	StatementHandler *importhandler.StatementHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initObservability()

	if err := deps.initEnrichment(); err != nil {
		return nil, fmt.Errorf("failed to init enrichment: %w", err)
	}

	deps.initServices()
	deps.initHandlers()

	logger.Debug("all dependencies initialized", "banks", deps.Registry.Banks())
	return deps, nil
}

func (d *Dependencies) initObservability() {
	if d.Config.Observability.MetricsEnabled {
		d.Metrics = metrics.New()
	}
	if !d.Config.Observability.TracingEnabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
	}
}

// initEnrichment loads rule tables and overrides and builds the pipeline.
func (d *Dependencies) initEnrichment() error {
	pc := d.Config.Pipeline

	rules := categorization.DefaultRules()
	if path := d.Config.Rules.RulesFile; path != "" {
		loaded, err := categorization.LoadRules(path)
		if err != nil {
			return err
		}
		rules = loaded
		d.Logger.Info("loaded category rules", "path", path, "rules", len(rules))
	}

	policy, err := normalizer.ParsePolicy(pc.MerchantPolicy)
	if err != nil {
		return err
	}
	tagPolicy, err := categorization.ParseTagPolicy(pc.TagPolicy)
	if err != nil {
		return err
	}

	d.Rules = categorization.NewRuleEnricher(rules, normalizer.NewMerchantNormalizer(policy)).
		WithTagPolicy(tagPolicy).
		WithPersonalTransfer(pc.PersonalTransfer)

	if path := d.Config.Rules.MerchantOverridesFile; path != "" {
		store, err := normalizer.LoadOverrides(path)
		if err != nil {
			return err
		}
		d.Rules.WithOverrides(store)
		d.Logger.Info("loaded merchant overrides", "path", path, "overrides", store.Len())
	}

	d.Pipeline, err = classification.NewPipeline(classification.Config{
		UseML:               pc.UseML,
		ConfidenceThreshold: pc.ConfidenceThreshold,
		FallbackToRules:     pc.FallbackToRules,
		ModelPath:           pc.ModelPath,
	}, d.Rules, normalizer.DefaultTextNormalizer(), d.Logger)
	if err != nil {
		return err
	}
	return nil
}

func (d *Dependencies) initServices() {
	icici := parser.NewICICIAdapter(parser.NewPDFDecoder(), normalizer.DefaultTextNormalizer(), d.Pipeline, d.Logger)
	if workers := d.Config.Pipeline.Workers; workers > 0 {
		icici.WithWorkers(workers)
	}
	d.Registry = parser.NewRegistry(icici)

	d.StatementService = importservice.NewStatementService(d.Registry, d.Logger).
		WithMetrics(d.Metrics).
		WithTimeout(d.Config.Pipeline.ParseTimeout)
}

func (d *Dependencies) initHandlers() {
	d.StatementHandler = importhandler.NewStatementHandler(d.StatementService, d.Config.Server.MaxUploadMB, d.Logger)
}
