package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/ai"
	"github.com/gmcortes/docufind/internal/config"
	"github.com/gmcortes/docufind/internal/email"
	"github.com/gmcortes/docufind/internal/extract"
	"github.com/gmcortes/docufind/internal/process"
	"github.com/gmcortes/docufind/internal/report"
	"github.com/gmcortes/docufind/internal/repository"
	"github.com/gmcortes/docufind/internal/storage"
	"github.com/gmcortes/docufind/pkg/database"
	"github.com/gmcortes/docufind/pkg/utils"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		fromDate   = flag.String("from", "", "search start date, YYYY-MM-DD")
		toDate     = flag.String("to", "", "search end date, YYYY-MM-DD")
		daysBack   = flag.Int("days", 0, "search the last N days (overrides config)")
		keywords   = flag.String("keywords", "", "comma-separated subject keywords (overrides config)")
		limit      = flag.Int("limit", 0, "maximum emails to process (overrides config)")
		dryRun     = flag.Bool("dry-run", false, "extract but do not archive, persist or report")
	)
	flag.Parse()

	// Credentials usually live in a .env next to the binary. Missing file is fine.
	_ = gotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.Processing.DryRun = true
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	filter, err := buildFilter(cfg, *fromDate, *toDate, *daysBack, *keywords, *limit)
	if err != nil {
		logger.Fatal("Invalid search window", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	deps := process.Deps{
		Fetcher: email.NewClient(cfg.Email, logger),
		Extractor: extract.NewExtractor(logger,
			extract.WithMaxTextLength(cfg.Extraction.MaxTextLength)),
		Archive: storage.NewArchive(cfg.Storage, logger),
		Sheet:   report.NewTrackingSheet(cfg.Report.SheetPath, cfg.Report.SheetName, logger),
		Store:   repository.NewRecordRepository(db, logger),
		Summary: report.NewSummaryWriter(cfg.Report.SummaryDir, logger),
	}

	if cfg.Extraction.EnhanceBelowConfidence > 0 {
		policy, err := ai.NewEnhancementPolicy(cfg.Extraction.EnhanceBelowConfidence)
		if err != nil {
			logger.Fatal("Invalid enhancement threshold", zap.Error(err))
		}
		deps.Policy = policy
		deps.Enhancer = ai.NewEnhancer(cfg.OpenAI, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting processing run",
		zap.Time("since", filter.Since),
		zap.Strings("keywords", filter.Keywords),
		zap.Bool("dry_run", cfg.Processing.DryRun))

	processor := process.NewProcessor(cfg.Processing, deps, logger)
	summary, err := processor.Run(ctx, filter)
	if err != nil {
		logger.Fatal("Processing run failed", zap.Error(err))
	}

	logger.Info("Processing run finished",
		zap.Int("emails_found", summary.EmailsFound),
		zap.Int("emails_processed", summary.EmailsProcessed),
		zap.Int("emails_skipped", summary.EmailsSkipped),
		zap.Int("invoices_extracted", summary.InvoicesExtracted),
		zap.Int("attachments_stored", summary.AttachmentsStored),
		zap.Int("fallbacks", summary.Fallbacks),
		zap.Int("errors", summary.Errors))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefaults()
}

// buildFilter combines configuration defaults with CLI overrides into the
// mailbox search window.
func buildFilter(cfg *config.Config, from, to string, days int, keywords string, limit int) (email.SearchFilter, error) {
	var filter email.SearchFilter

	if days <= 0 {
		days = cfg.Search.DaysBack
	}
	filter.Since = time.Now().AddDate(0, 0, -days)

	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return filter, fmt.Errorf("invalid --from date: %w", err)
		}
		filter.Since = t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return filter, fmt.Errorf("invalid --to date: %w", err)
		}
		// IMAP BEFORE is exclusive, so push the bound past the requested day.
		filter.Before = t.AddDate(0, 0, 1)
	}
	if err := utils.ValidateDateRange(filter.Since, filter.Before); err != nil {
		return filter, err
	}

	filter.Keywords = cfg.Search.Keywords
	if keywords != "" {
		filter.Keywords = splitKeywords(keywords)
	}

	filter.Limit = cfg.Search.Limit
	if limit > 0 {
		filter.Limit = limit
	}

	return filter, nil
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
