package classification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/echo-statements/internal/domain/categorization"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
)

// Fallback confidences for rule-derived values.
const (
	RuleMatchedConfidence   = 0.6
	RuleUnmatchedConfidence = 0.3
	PanicFallbackConfidence = 0.6

	merchantWeight = 0.4
	categoryWeight = 0.6
)

// Config controls the feature-scoring path.
type Config struct {
	UseML               bool
	ConfidenceThreshold float64
	FallbackToRules     bool
	ModelPath           string // reserved, unused
}

// DefaultConfig enables scoring with a 0.7 threshold and rule fallback.
func DefaultConfig() Config {
	return Config{UseML: true, ConfidenceThreshold: 0.7, FallbackToRules: true}
}

// ShouldUseMLResult reports whether a scored value is trusted over the rule path.
func ShouldUseMLResult(confidence, threshold float64) bool {
	return confidence >= threshold
}

// CategoryStage scores categories.
type CategoryStage interface {
	Ready() error
	Classify(ctx context.Context, p *Preprocessed, ruleCategory string) (*CategoryPrediction, error)
}

// MerchantStage extracts merchants.
type MerchantStage interface {
	Ready() error
	Extract(ctx context.Context, p *Preprocessed) (*MerchantPrediction, error)
}

// Pipeline fuses the rule path with the scoring stages per concern.
type Pipeline struct {
	cfg          Config
	rules        *categorization.RuleEnricher
	preprocessor *Preprocessor
	classifier   CategoryStage
	merchants    MerchantStage
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewPipeline builds the default stages around a rule enricher.
func NewPipeline(cfg Config, rules *categorization.RuleEnricher, cleaner Cleaner, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	brands, err := NewBrandIndex(rules.Normalizer().Brands())
	if err != nil {
		return nil, fmt.Errorf("failed to build brand index: %w", err)
	}
	return &Pipeline{
		cfg:          cfg,
		rules:        rules,
		preprocessor: NewPreprocessor(cleaner),
		classifier:   NewClassifier(DefaultWeights()),
		merchants:    NewMerchantExtractor(rules.Normalizer(), brands, cfg.ConfidenceThreshold),
		logger:       logger,
		tracer:       otel.Tracer("echo-statements/classification"),
	}, nil
}

// WithClassifier replaces the category stage.
func (p *Pipeline) WithClassifier(c CategoryStage) *Pipeline {
	p.classifier = c
	return p
}

// WithMerchantStage replaces the merchant stage.
func (p *Pipeline) WithMerchantStage(m MerchantStage) *Pipeline {
	p.merchants = m
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Ready returns the first stage that is not ready.
func (p *Pipeline) Ready() error {
	if err := p.preprocessor.Ready(); err != nil {
		return fmt.Errorf("preprocessor: %w", err)
	}
	if err := p.classifier.Ready(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := p.merchants.Ready(); err != nil {
		return fmt.Errorf("merchant extractor: %w", err)
	}
	return nil
}

type concern struct {
	value      string
	sub        string
	confidence float64
	source     statement.Source
}

func ruleConfidence(matched bool) float64 {
	if matched {
		return RuleMatchedConfidence
	}
	return RuleUnmatchedConfidence
}

// Enrich computes the enrichment for one raw record. It never fails: stage
// errors fall back per concern and a panic falls back to a full rule pass.
func (p *Pipeline) Enrich(ctx context.Context, description string, amount float64, txnType string) (out statement.Enrichment) {
	ctx, span := p.tracer.Start(ctx, "Pipeline.Enrich")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("enrichment panic: %v", r)
			span.RecordError(err)
			p.logger.Error("enrichment failed, using rules", "error", err)
			out = p.rulePass(description, amount, txnType)
		}
	}()

	rule := p.rules.Enrich(description, amount, txnType)
	merchant := concern{value: rule.Merchant, confidence: ruleConfidence(rule.MerchantFound), source: statement.SourceRules}
	category := concern{value: rule.Category, sub: rule.Subcategory, confidence: ruleConfidence(rule.Matched), source: statement.SourceRules}

	var pre *Preprocessed
	if p.cfg.UseML {
		var err error
		pre, err = p.preprocessor.Process(description, amount, txnType)
		if err != nil {
			p.logger.Warn("preprocessing failed, using rules", "error", err)
		} else {
			mp, cp, err := p.runStages(ctx, pre, rule.Category)
			if err != nil {
				span.RecordError(err)
				p.logger.Error("stage panicked, using rules", "error", err)
				return p.rulePass(description, amount, txnType)
			}
			if mp != nil && p.accept(mp.Confidence) {
				merchant = concern{value: mp.Name, confidence: mp.Confidence, source: statement.SourceML}
			}
			if cp != nil && p.accept(cp.Confidence) {
				sub := cp.Subcategory
				if strings.EqualFold(cp.Category, rule.Category) {
					sub = rule.Subcategory
				}
				category = concern{value: cp.Category, sub: sub, confidence: cp.Confidence, source: statement.SourceML}
			}
		}
	}

	recurring := (rule.IsRecurring && category.value == rule.Category) ||
		recurringCategory(category.value, category.sub) ||
		recurringSignals(pre) ||
		recurringKeywords(description)

	match := categorization.CategoryMatch{
		Category:    category.value,
		Subcategory: category.sub,
		IsRecurring: recurring,
		Matched:     category.value != statement.FallbackCategory,
	}
	score := merchantWeight*merchant.confidence + categoryWeight*category.confidence

	span.SetAttributes(
		attribute.String("enrich.category", category.value),
		attribute.String("enrich.merchant_source", string(merchant.source)),
		attribute.String("enrich.category_source", string(category.source)),
		attribute.Float64("enrich.confidence", score),
	)

	return statement.Enrichment{
		Merchant:      merchant.value,
		Category:      category.value,
		Subcategory:   category.sub,
		PaymentMethod: rule.PaymentMethod,
		IsRecurring:   recurring,
		Tags:          p.rules.Tags(description, merchant.value, match, amount),
		Notes:         rule.Notes,
		Confidence: &statement.Confidence{
			Score:  score,
			Source: fuseSource(merchant.source, category.source),
		},
	}
}

func (p *Pipeline) accept(confidence float64) bool {
	return ShouldUseMLResult(confidence, p.cfg.ConfidenceThreshold) || !p.cfg.FallbackToRules
}

// runStages runs merchant extraction and classification concurrently. Returned
// stage errors are logged and yield a nil prediction; only panics are returned.
func (p *Pipeline) runStages(ctx context.Context, pre *Preprocessed, ruleCategory string) (*MerchantPrediction, *CategoryPrediction, error) {
	var (
		g  errgroup.Group
		mp *MerchantPrediction
		cp *CategoryPrediction
	)

	g.Go(func() (err error) {
		defer recoverStage("merchant", &err)
		if rerr := p.merchants.Ready(); rerr != nil {
			p.logger.Debug("merchant stage not ready", "error", rerr)
			return nil
		}
		pred, serr := p.merchants.Extract(ctx, pre)
		if serr != nil {
			p.logger.Warn("merchant extraction failed, using rules", "error", serr)
			return nil
		}
		mp = pred
		return nil
	})

	g.Go(func() (err error) {
		defer recoverStage("classifier", &err)
		if rerr := p.classifier.Ready(); rerr != nil {
			p.logger.Debug("classifier not ready", "error", rerr)
			return nil
		}
		pred, serr := p.classifier.Classify(ctx, pre, ruleCategory)
		if serr != nil {
			p.logger.Warn("classification failed, using rules", "error", serr)
			return nil
		}
		cp = pred
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return mp, cp, nil
}

func recoverStage(stage string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s stage panic: %v", stage, r)
	}
}

// rulePass is the full rule-based result used after a panic.
func (p *Pipeline) rulePass(description string, amount float64, txnType string) statement.Enrichment {
	rule := p.rules.Enrich(description, amount, txnType)
	return statement.Enrichment{
		Merchant:      rule.Merchant,
		Category:      rule.Category,
		Subcategory:   rule.Subcategory,
		PaymentMethod: rule.PaymentMethod,
		IsRecurring:   rule.IsRecurring,
		Tags:          rule.Tags,
		Notes:         rule.Notes,
		Confidence:    &statement.Confidence{Score: PanicFallbackConfidence, Source: statement.SourceRules},
	}
}

func fuseSource(merchant, category statement.Source) statement.Source {
	switch {
	case merchant == statement.SourceML && category == statement.SourceML:
		return statement.SourceML
	case merchant == statement.SourceRules && category == statement.SourceRules:
		return statement.SourceRules
	default:
		return statement.SourceHybrid
	}
}

func recurringCategory(category, subcategory string) bool {
	switch category {
	case "Utilities", "Finance":
		return true
	case "Entertainment":
		return subcategory == "Streaming Services"
	}
	return false
}

func recurringSignals(p *Preprocessed) bool {
	if p == nil {
		return false
	}
	if p.Has("kw_entertainment") && p.Has("round_amount") {
		return true
	}
	return (p.Has("kw_utilities") || p.Has("kw_finance")) && p.Has("amount_medium")
}

var recurringMarkers = []string{"subscription", "monthly", "autopay", "auto pay", "mandate", "standing instruction", "si/", "renewal", "nach"}

func recurringKeywords(description string) bool {
	lower := strings.ToLower(description)
	for _, m := range recurringMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
