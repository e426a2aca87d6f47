package process

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/config"
	"github.com/gmcortes/docufind/internal/email"
	"github.com/gmcortes/docufind/internal/extract"
	"github.com/gmcortes/docufind/internal/report"
	"github.com/gmcortes/docufind/internal/repository"
	"github.com/gmcortes/docufind/internal/storage"
)

// Fetcher finds and downloads mailbox messages.
type Fetcher interface {
	Search(ctx context.Context, filter email.SearchFilter) ([]email.Message, error)
}

// Archiver files one attachment and returns its final path.
type Archiver interface {
	Store(doc storage.Document) (string, error)
}

// SheetAppender appends one tracking sheet row.
type SheetAppender interface {
	Append(row report.Row) error
}

// ResultStore persists processing outcomes and answers dedupe queries.
type ResultStore interface {
	IsProcessed(uid uint32, messageID string) (bool, error)
	SaveResult(e repository.ProcessedEmail, rec extract.InvoiceRecord, paths []string) (string, error)
}

// Enhancer improves a low-confidence record. Optional.
type Enhancer interface {
	Enhance(ctx context.Context, rec extract.InvoiceRecord, text string) (extract.InvoiceRecord, error)
}

// EnhancePolicy decides which records go through the Enhancer.
type EnhancePolicy interface {
	ShouldEnhance(confidence float64) bool
}

// Deps bundles everything the processor drives.
type Deps struct {
	Fetcher   Fetcher
	Extractor *extract.Extractor
	Archive   Archiver
	Sheet     SheetAppender
	Store     ResultStore
	Enhancer  Enhancer
	Policy    EnhancePolicy
	Summary   *report.SummaryWriter
}

// Processor runs one end-to-end pass: search, extract, archive, report,
// persist. Extraction and archiving fan out over a bounded worker pool;
// sheet and database writes stay on a single collector so their order and
// safety never depend on worker scheduling.
type Processor struct {
	cfg    config.ProcessingConfig
	deps   Deps
	logger *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(cfg config.ProcessingConfig, deps Deps, logger *zap.Logger) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{cfg: cfg, deps: deps, logger: logger}
}

// outcome is one worker's result for one email.
type outcome struct {
	msg           email.Message
	record        extract.InvoiceRecord
	archivedPaths []string
	archiveErrors int
}

// Run executes one processing pass and returns the run summary. Individual
// email failures are absorbed into the summary; only infrastructure-level
// failures (search, summary write) surface as errors.
func (p *Processor) Run(ctx context.Context, filter email.SearchFilter) (*report.RunSummary, error) {
	summary := report.NewRunSummary()

	messages, err := p.deps.Fetcher.Search(ctx, filter)
	if err != nil {
		return summary, err
	}
	summary.EmailsFound = len(messages)
	p.logger.Info("emails found", zap.Int("count", len(messages)))

	pending := p.filterProcessed(messages, summary)
	if len(pending) == 0 {
		return p.finish(summary)
	}

	jobs := make(chan email.Message)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				results <- p.processOne(ctx, msg)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	go func() {
		defer close(jobs)
		for _, msg := range pending {
			select {
			case jobs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for out := range results {
		p.collect(out, summary)
	}

	return p.finish(summary)
}

// filterProcessed drops emails already handled in earlier runs.
func (p *Processor) filterProcessed(messages []email.Message, summary *report.RunSummary) []email.Message {
	if p.deps.Store == nil {
		return messages
	}

	pending := messages[:0]
	for _, msg := range messages {
		done, err := p.deps.Store.IsProcessed(msg.UID, msg.MessageID)
		if err != nil {
			p.logger.Warn("dedupe check failed, processing anyway",
				zap.Uint32("uid", msg.UID), zap.Error(err))
			done = false
		}
		if done {
			summary.EmailsSkipped++
			continue
		}
		pending = append(pending, msg)
	}
	return pending
}

// processOne extracts one email and archives its attachments.
func (p *Processor) processOne(ctx context.Context, msg email.Message) outcome {
	out := outcome{msg: msg}

	body, attachments := toExtractionInput(msg)
	emailCtx := extract.EmailContext{
		Sender:  msg.Sender,
		Subject: msg.Subject,
		Date:    formatEmailDate(msg.Date),
	}

	rec := p.deps.Extractor.Extract(body, attachments, emailCtx)

	if p.deps.Enhancer != nil && p.deps.Policy != nil && p.deps.Policy.ShouldEnhance(rec.Confidence) {
		enhanced, err := p.deps.Enhancer.Enhance(ctx, rec, bestText(msg))
		if err != nil {
			p.logger.Warn("enhancement failed, keeping pattern result",
				zap.Uint32("uid", msg.UID), zap.Error(err))
		} else {
			rec = enhanced
		}
	}
	out.record = rec

	if p.cfg.DryRun || p.deps.Archive == nil {
		return out
	}

	for _, att := range msg.Attachments {
		if len(att.Data) == 0 {
			continue
		}
		path, err := p.deps.Archive.Store(storage.Document{
			Filename:      att.Filename,
			Data:          att.Data,
			Date:          msg.Date,
			IsInvoice:     storage.IsInvoiceFile(att.Filename),
			InvoiceDate:   rec.InvoiceDate,
			Vendor:        rec.Vendor,
			InvoiceNumber: rec.InvoiceNumber,
			Amount:        rec.Amount,
		})
		if err != nil {
			p.logger.Error("failed to archive attachment",
				zap.Uint32("uid", msg.UID),
				zap.String("filename", att.Filename),
				zap.Error(err))
			out.archiveErrors++
			continue
		}
		out.archivedPaths = append(out.archivedPaths, path)
	}

	return out
}

// collect folds one outcome into the sheet, the database and the summary.
// Every processed email gets its sheet row, extraction outcome or not.
func (p *Processor) collect(out outcome, summary *report.RunSummary) {
	summary.EmailsProcessed++
	summary.AttachmentsStored += len(out.archivedPaths)
	summary.Errors += out.archiveErrors

	fallback := out.record.ExtractionMethod == extract.MethodFallback
	if fallback {
		summary.Fallbacks++
	} else if out.record.Amount != nil || out.record.InvoiceNumber != "" {
		summary.InvoicesExtracted++
	}
	summary.CountRecord(string(out.record.Category), out.record.Currency, out.record.Amount)

	if p.cfg.DryRun {
		return
	}

	if p.deps.Sheet != nil {
		err := p.deps.Sheet.Append(report.Row{
			ProcessedAt:     time.Now(),
			EmailDate:       formatEmailDate(out.msg.Date),
			Sender:          out.msg.Sender,
			Subject:         out.msg.Subject,
			AttachmentNames: attachmentNames(out.msg),
			Record:          out.record,
			Status:          rowStatus(fallback),
			ArchivedPaths:   out.archivedPaths,
		})
		if err != nil {
			p.logger.Error("failed to append sheet row",
				zap.Uint32("uid", out.msg.UID), zap.Error(err))
			summary.Errors++
		}
	}

	if p.deps.Store != nil {
		status := repository.StatusExtracted
		if fallback {
			status = repository.StatusFallback
		}
		_, err := p.deps.Store.SaveResult(repository.ProcessedEmail{
			UID:       out.msg.UID,
			MessageID: out.msg.MessageID,
			Sender:    out.msg.Sender,
			Subject:   out.msg.Subject,
			EmailDate: formatEmailDate(out.msg.Date),
			Status:    status,
		}, out.record, out.archivedPaths)
		if err != nil {
			p.logger.Error("failed to persist result",
				zap.Uint32("uid", out.msg.UID), zap.Error(err))
			summary.Errors++
		}
	}
}

func (p *Processor) finish(summary *report.RunSummary) (*report.RunSummary, error) {
	if p.deps.Summary == nil {
		return summary, nil
	}
	if _, err := p.deps.Summary.Write(summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// toExtractionInput maps a fetched message onto the extractor's input
// shapes. The plain body wins; HTML is the fallback and gets stripped by
// the normalizer.
func toExtractionInput(msg email.Message) (extract.Content, []extract.Attachment) {
	var body extract.Content
	switch {
	case msg.TextBody != "":
		body = extract.TextContent{Text: msg.TextBody}
	case msg.HTMLBody != "":
		body = extract.TextContent{Text: msg.HTMLBody}
	default:
		body = extract.TextContent{}
	}

	attachments := make([]extract.Attachment, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, extract.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     extract.BytesContent{Data: att.Data},
		})
	}
	return body, attachments
}

func bestText(msg email.Message) string {
	if msg.TextBody != "" {
		return msg.TextBody
	}
	return msg.HTMLBody
}

func attachmentNames(msg email.Message) []string {
	if len(msg.Attachments) == 0 {
		return nil
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		names = append(names, att.Filename)
	}
	return names
}

func formatEmailDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func rowStatus(fallback bool) string {
	if fallback {
		return "Error"
	}
	return "Procesado"
}
