// Package monitor runs one scrape-diff-archive-announce cycle over
// the presidential actions listing. Everything that talks to the
// outside world is injected; the service owns the sequencing, the
// per-item failure isolation and the final history commit.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"eomonitor/lib/bluesky"
	"eomonitor/lib/documentcloud"
	"eomonitor/lib/pdfutil"
	"eomonitor/lib/scrapers/whitehouse"
	"eomonitor/services/monitor/state"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/monitor")

// InternetArchiveAddon names the add-on that exports a document to
// the Internet Archive.
const InternetArchiveAddon = "MuckRock/Internet-Archive-Export-Add-On"

type Scraper interface {
	ScrapeRecent(ctx context.Context, includeProclamations bool) ([]whitehouse.Order, error)
}

type Archiver interface {
	Upload(ctx context.Context, req documentcloud.UploadRequest) (documentcloud.Document, error)
	TriggerAddonRun(ctx context.Context, addon string, parameters map[string]any) error
}

type Announcer interface {
	PostOrder(ctx context.Context, order whitehouse.Order, docUrl string) (bluesky.PostResult, error)
}

// RenderFunc turns one order into a pdf at the given path.
type RenderFunc func(order whitehouse.Order, outPath string) error

// ItemError records which pipeline stage failed for which order.
// The stages are render, archive and announce; any of them failing
// leaves the order unmarked so the next run picks it up again.
type ItemError struct {
	Id    string
	Stage string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Id, e.Stage, e.Err.Error())
}

func (e ItemError) Unwrap() error {
	return e.Err
}

type Report struct {
	Skipped    bool
	Candidates int
	Found      int
	Processed  int
	Posted     int
	Errors     []ItemError
}

type Service struct {
	cfg       Config
	store     state.Store
	scraper   Scraper
	archiver  Archiver
	announcer Announcer
	notifier  Notifier
	status    StatusReporter
	render    RenderFunc
	now       func() time.Time
}

type Dependencies struct {
	Store    state.Store
	Scraper  Scraper
	Archiver Archiver
	// nil disables announcements
	Announcer Announcer
	// nil disables the summary email
	Notifier Notifier
	// defaults to SlogStatus
	Status StatusReporter
	// defaults to pdfutil.Generate
	Render RenderFunc
	// defaults to time.Now
	Now func() time.Time
}

func NewService(cfg Config, deps Dependencies) Service {
	if deps.Status == nil {
		deps.Status = SlogStatus{}
	}
	if deps.Render == nil {
		deps.Render = pdfutil.Generate
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return Service{
		cfg:       cfg,
		store:     deps.Store,
		scraper:   deps.Scraper,
		archiver:  deps.Archiver,
		announcer: deps.Announcer,
		notifier:  deps.Notifier,
		status:    deps.Status,
		render:    deps.Render,
		now:       deps.Now,
	}
}

// Run executes one full monitor cycle. Item-level failures never
// abort the batch; only the initial listing fetch and the final
// history save are fatal. force bypasses the run-gate.
func (s Service) Run(ctx context.Context, force bool) (Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	var report Report
	s.status.SetMessage(ctx, "Starting executive orders monitor...")

	history := state.Load(ctx, s.store)

	if !force && history.ShouldSkip(s.now(), s.cfg.Interval()) {
		s.status.SetMessage(ctx, "Skipping check - not enough time since last run")
		report.Skipped = true
		return report, nil
	}

	s.status.SetMessage(ctx, "Scraping presidential actions page...")
	candidates, err := s.scraper.ScrapeRecent(ctx, s.cfg.IncludeProclamations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		s.status.SetMessage(ctx, fmt.Sprintf("Error: %s", err.Error()))
		return report, fmt.Errorf("scrape: %w", err)
	}
	report.Candidates = len(candidates)

	fresh := history.SelectNew(candidates)
	report.Found = len(fresh)
	span.SetAttributes(
		attribute.Int("candidates", report.Candidates),
		attribute.Int("new", report.Found),
	)

	if len(fresh) == 0 {
		s.status.SetMessage(ctx, "No new executive orders found")
		return report, s.save(ctx, history)
	}

	s.status.SetMessage(ctx, fmt.Sprintf("Found %d new executive order(s)", len(fresh)))
	if fresh[0].DateStr != "" {
		history.SetLastOrderDate(fresh[0].DateStr)
	}

	for i, order := range fresh {
		s.status.SetMessage(ctx, fmt.Sprintf(
			"Processing order %d/%d: %s", i+1, len(fresh), order.Title,
		))
		announced, itemErr := s.processOrder(ctx, history, order)
		if itemErr != nil {
			slog.ErrorContext(ctx, "failed to process order",
				"id", itemErr.Id, "stage", itemErr.Stage, "err", itemErr.Err)
			s.status.SetMessage(ctx, fmt.Sprintf("Error processing order: %s", itemErr.Error()))
			report.Errors = append(report.Errors, *itemErr)
			continue
		}
		report.Processed++
		if announced {
			report.Posted++
		}
	}

	err = s.save(ctx, history)
	if err != nil {
		return report, err
	}

	summary := fmt.Sprintf(
		"Processed %d new executive order(s). Total processed: %d",
		report.Processed, history.Stats().TotalProcessed,
	)
	if s.announcer != nil {
		summary += fmt.Sprintf(", Posted to Bluesky: %d", history.Stats().TotalPosted)
	}
	s.status.SetMessage(ctx, summary)

	if s.notifier != nil {
		err := s.notifier.SendRunSummary(ctx, report)
		if err != nil {
			slog.WarnContext(ctx, "failed to send run summary", "err", err)
		}
	}

	return report, nil
}

func (s Service) save(ctx context.Context, history *state.History) error {
	err := state.Save(ctx, s.store, history, s.now())
	if err != nil {
		s.status.SetMessage(ctx, fmt.Sprintf("Error: failed to save state: %s", err.Error()))
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// processOrder pushes one order through render, archive and
// announce, reporting whether an announcement went out on this run.
// The order is marked posted immediately after a successful
// announcement and marked processed only once every enabled stage
// succeeded, so a partial failure reruns the item next time while
// the posted set keeps it from being announced twice.
func (s Service) processOrder(ctx context.Context, history *state.History, order whitehouse.Order) (bool, *ItemError) {
	ctx, span := tracer.Start(ctx, "processOrder")
	defer span.End()

	span.SetAttributes(attribute.String("id", order.Id))

	fail := func(stage string, err error) *ItemError {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		return &ItemError{Id: order.Id, Stage: stage, Err: err}
	}

	tmp, err := os.CreateTemp("", "eo-*.pdf")
	if err != nil {
		return false, fail("render", err)
	}
	pdfPath := tmp.Name()
	tmp.Close()
	defer os.Remove(pdfPath)

	err = s.render(order, pdfPath)
	if err != nil {
		return false, fail("render", err)
	}

	doc, err := s.archiver.Upload(ctx, s.uploadRequest(order, pdfPath))
	if err != nil {
		return false, fail("archive", err)
	}
	slog.InfoContext(ctx, "uploaded document", "doc_id", doc.Id, "title", doc.Title)

	if s.cfg.ArchiveToIAEnabled() {
		// fire and forget, a failed export trigger never fails the item
		err := s.archiver.TriggerAddonRun(ctx, InternetArchiveAddon, map[string]any{
			"item_name": fmt.Sprintf("executive-order-%s", order.Id),
			"filecoin":  s.cfg.UploadToIpfsEnabled(),
			"documents": []string{doc.Id},
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to trigger internet archive export", "err", err)
		}
	}

	announced := false
	if s.announcer != nil && !history.IsPosted(order.Id) {
		result, err := s.announcer.PostOrder(ctx, order, doc.CanonicalUrl)
		if err != nil {
			return false, fail("announce", err)
		}
		history.MarkPosted(order.Id)
		announced = true
		slog.InfoContext(ctx, "posted to bluesky", "uri", result.Uri)
	}

	history.MarkProcessed(order.Id)
	return announced, nil
}

func (s Service) uploadRequest(order whitehouse.Order, pdfPath string) documentcloud.UploadRequest {
	title := order.Title
	if title == "" {
		title = "Executive Order"
	}
	if order.OrderNumber != "" {
		title = fmt.Sprintf("EO %s: %s", order.OrderNumber, title)
	}

	source := "White House"
	if order.DateStr != "" {
		source += fmt.Sprintf(" - %s", order.DateStr)
	}

	return documentcloud.UploadRequest{
		Title:       title,
		Source:      source,
		Description: fmt.Sprintf("Executive Order scraped from %s", order.Url),
		Language:    "eng",
		Data: map[string]string{
			"order_id":     order.Id,
			"order_number": order.OrderNumber,
			"original_url": order.Url,
			"scrape_date":  s.now().UTC().Format(time.RFC3339),
			"order_type":   string(order.Type),
		},
		PdfPath: pdfPath,
	}
}
