package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"StockResearch/internal/domain/models"
	"StockResearch/pkg/logger"
	"StockResearch/pkg/metrics"
)

var (
	// ErrInvalidTicker rejects tickers before any fan-out happens.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrNoSectionsSucceeded means every requested section failed; the
	// report would carry no data at all.
	ErrNoSectionsSucceeded = errors.New("no report sections succeeded")
)

var tickerPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-]{0,9}$`)

// Error codes embedded in failed report sections.
const (
	CodeSectionTimeout      = "section_timeout"
	CodeBudgetExhausted     = "budget_exhausted"
	CodeProviderUnavailable = "provider_unavailable"
	CodeUnknownSection      = "unknown_section"
)

// ResearchBuilder drives the deep-research flow: one resolver call per
// section, concurrently, each under its own timeout, merged into one
// best-effort report.
type ResearchBuilder struct {
	resolver       *Resolver
	catalog        Catalog
	sectionTimeout time.Duration
	metrics        *metrics.Recorder
	logger         *logger.Logger
}

// NewResearchBuilder creates a ResearchBuilder.
func NewResearchBuilder(resolver *Resolver, catalog Catalog, sectionTimeout time.Duration, rec *metrics.Recorder, log *logger.Logger) *ResearchBuilder {
	if sectionTimeout <= 0 {
		sectionTimeout = 20 * time.Second
	}
	return &ResearchBuilder{
		resolver:       resolver,
		catalog:        catalog,
		sectionTimeout: sectionTimeout,
		metrics:        rec,
		logger:         log,
	}
}

// BuildReport assembles a research report for ticker. An empty sections
// slice requests every catalog section. A zero timeout uses the default.
//
// The report is best-effort complete: it is returned as long as at least one
// section succeeded, with failed sections explicitly flagged.
func (b *ResearchBuilder) BuildReport(ctx context.Context, ticker string, sections []string, timeout time.Duration) (*models.ResearchReport, error) {
	if !tickerPattern.MatchString(ticker) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	if len(sections) == 0 {
		sections = b.catalog.Names()
		sort.Strings(sections)
	}
	if timeout <= 0 {
		timeout = b.sectionTimeout
	}

	type sectionOutcome struct {
		name   string
		result models.SectionResult
	}

	var wg sync.WaitGroup
	outcomes := make(chan sectionOutcome, len(sections))

	for _, name := range sections {
		builder, ok := b.catalog[name]
		if !ok {
			outcomes <- sectionOutcome{name: name, result: models.SectionResult{
				Error:     fmt.Sprintf("unknown section %q", name),
				ErrorCode: CodeUnknownSection,
			}}
			continue
		}

		wg.Add(1)
		go func(name string, builder SectionBuilder) {
			defer wg.Done()

			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			res, err := b.resolver.Resolve(sctx, builder(ticker))
			outcomes <- sectionOutcome{name: name, result: b.classify(name, res, err)}
		}(name, builder)
	}

	wg.Wait()
	close(outcomes)

	report := &models.ResearchReport{
		Ticker:      ticker,
		GeneratedAt: time.Now().UTC(),
		Sections:    make(map[string]models.SectionResult, len(sections)),
	}

	succeeded := 0
	for o := range outcomes {
		report.Sections[o.name] = o.result
		if o.result.OK() {
			succeeded++
		}
	}
	report.Complete = succeeded == len(report.Sections)

	if succeeded == 0 {
		return nil, fmt.Errorf("%w: ticker %s", ErrNoSectionsSucceeded, ticker)
	}

	b.logger.Info("research report built",
		logger.String("ticker", ticker),
		logger.Int("sections", len(report.Sections)),
		logger.Int("succeeded", succeeded),
	)
	return report, nil
}

// classify turns a resolver outcome into a section result with a stable
// error code, so downstream synthesis can reason about missing data.
func (b *ResearchBuilder) classify(name string, res Result, err error) models.SectionResult {
	if err == nil {
		b.metrics.RecordReportSection(name, "ok")
		return models.SectionResult{Data: res.Value, Freshness: res.Freshness}
	}

	code := CodeProviderUnavailable
	outcome := "failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = CodeSectionTimeout
		outcome = "timeout"
	case errors.Is(err, ErrBudgetExhausted):
		code = CodeBudgetExhausted
	}
	b.metrics.RecordReportSection(name, outcome)
	b.logger.Warn("report section failed",
		logger.String("section", name),
		logger.String("code", code),
		logger.Error(err),
	)
	return models.SectionResult{Error: err.Error(), ErrorCode: code}
}
