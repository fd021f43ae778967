package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scanlog/frontend/shared/notify"
	"scanlog/infrastructure/apiclient"
	"scanlog/infrastructure/dateutil"
	"scanlog/models"
)

// Options tunes a Pipeline. Zero values take the defaults.
type Options struct {
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Pipeline owns the filter, result page, export and clear flows of one query
// view. List requests are tagged with a generation number and responses to
// superseded requests are dropped.
type Pipeline struct {
	api      ScanAPI
	notifier notify.Notifier
	saver    Saver
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger

	mu           sync.Mutex
	filter       Filter
	scans        []models.Scan
	total        int
	gen          uint64
	loading      bool
	exporting    bool
	clearing     bool
	confirmClear bool
	lastErr      string
}

// NewPipeline returns a Pipeline with the default filter and no page loaded.
func NewPipeline(api ScanAPI, notifier notify.Notifier, saver Saver, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		api:      api,
		notifier: notifier,
		saver:    saver,
		loc:      opts.Location,
		now:      opts.Now,
		log:      opts.Logger.With("component", "query"),
		filter:   Filter{Page: 1},
		scans:    []models.Scan{},
	}
}

// SetFilter merges patch into the filter and refetches. Any change outside
// Page sends the view back to page 1.
func (p *Pipeline) SetFilter(ctx context.Context, patch FilterPatch) error {
	if err := p.ApplyFilter(patch); err != nil {
		return err
	}
	return p.Refetch(ctx)
}

// ApplyFilter merges patch into the filter without fetching.
func (p *Pipeline) ApplyFilter(patch FilterPatch) error {
	if patch.Page != nil && *patch.Page < 1 {
		return ErrInvalidPage
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.filter
	next := old
	if patch.Barcode != nil {
		next.Barcode = *patch.Barcode
	}
	if patch.StartDate != nil {
		next.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		next.EndDate = *patch.EndDate
	}
	if patch.Page != nil {
		next.Page = *patch.Page
	}
	if next.Barcode != old.Barcode || !sameDay(next.StartDate, old.StartDate) || !sameDay(next.EndDate, old.EndDate) {
		next.Page = 1
	}
	p.filter = next
	return nil
}

// SetPage moves to page n and refetches. Pages past the end are allowed and
// simply come back empty.
func (p *Pipeline) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		return ErrInvalidPage
	}
	p.mu.Lock()
	p.filter.Page = n
	p.mu.Unlock()
	return p.Refetch(ctx)
}

// Refetch loads the current page. On failure the page is emptied, an error
// notification is raised and the filter is kept.
func (p *Pipeline) Refetch(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	q := p.queryLocked(true)
	p.loading = true
	p.mu.Unlock()

	resp, err := p.api.ListScans(ctx, q)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		p.log.Debug("discarding stale list response", "generation", gen)
		return nil
	}
	p.loading = false
	if err != nil {
		p.scans = []models.Scan{}
		p.total = 0
		p.lastErr = apiclient.UserMessage(err, msgLoadFailed)
		msg := p.lastErr
		p.mu.Unlock()
		p.logFailure("list scans failed", err)
		p.emit(notify.LevelError, msg)
		return err
	}
	p.scans = resp.Scans
	if p.scans == nil {
		p.scans = []models.Scan{}
	}
	p.total = resp.Total
	p.lastErr = ""
	p.mu.Unlock()
	return nil
}

// Export downloads the full filtered set and hands it to the Saver under the
// server supplied filename, or barcode_scans_<today>.xlsx when none is given.
// A second export while one is running is rejected.
func (p *Pipeline) Export(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.exporting {
		p.mu.Unlock()
		return "", ErrExportInFlight
	}
	p.exporting = true
	exportURL := p.api.ExportURL(p.queryLocked(false))
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.exporting = false
		p.mu.Unlock()
	}()

	dl, err := p.api.Download(ctx, exportURL)
	if err != nil {
		p.logFailure("export download failed", err)
		p.emit(notify.LevelError, apiclient.UserMessage(err, msgExportFailed))
		return "", err
	}

	name := strings.TrimSpace(dl.Filename)
	if name == "" {
		name = FallbackExportName(p.now().In(p.loc))
	}
	path, err := p.saver.Save(name, dl.Body)
	if err != nil {
		p.log.Error("save export failed", "filename", name, "err", err)
		p.emit(notify.LevelError, msgExportFailed)
		return "", err
	}
	p.emit(notify.LevelSuccess, "export saved: "+path)
	return path, nil
}

// FallbackExportName is used when the server does not name the file.
func FallbackExportName(now time.Time) string {
	return "barcode_scans_" + dateutil.FormatDate(now) + ".xlsx"
}

// RequestClear opens the confirmation step.
func (p *Pipeline) RequestClear() {
	p.mu.Lock()
	p.confirmClear = true
	p.mu.Unlock()
}

// CancelClear closes the confirmation step without clearing.
func (p *Pipeline) CancelClear() {
	p.mu.Lock()
	p.confirmClear = false
	p.mu.Unlock()
}

// ConfirmClear deletes every record once RequestClear has been called. On
// success the prompt closes and the page is refetched; on failure the prompt
// stays open for a retry.
func (p *Pipeline) ConfirmClear(ctx context.Context) error {
	p.mu.Lock()
	if !p.confirmClear {
		p.mu.Unlock()
		return ErrClearNotRequested
	}
	if p.clearing {
		p.mu.Unlock()
		return ErrClearInFlight
	}
	p.clearing = true
	p.mu.Unlock()

	resp, err := p.api.ClearAll(ctx)

	p.mu.Lock()
	p.clearing = false
	if err != nil {
		p.mu.Unlock()
		p.logFailure("clear scans failed", err)
		p.emit(notify.LevelError, apiclient.UserMessage(err, msgClearFailed))
		return err
	}
	p.confirmClear = false
	p.mu.Unlock()

	p.log.Warn("scan records cleared", "message", resp.Message)
	p.emit(notify.LevelSuccess, resp.Message)
	return p.Refetch(ctx)
}

// State returns a snapshot safe to render.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	totalPages := TotalPages(p.total, PageSize)
	return State{
		Filter:          p.filter,
		Scans:           append([]models.Scan{}, p.scans...),
		Total:           p.total,
		TotalPages:      totalPages,
		Window:          PageWindow(p.filter.Page, totalPages),
		Loading:         p.loading,
		Exporting:       p.exporting,
		Clearing:        p.clearing,
		ConfirmingClear: p.confirmClear,
		LastError:       p.lastErr,
	}
}

func (p *Pipeline) queryLocked(paged bool) apiclient.ScanQuery {
	q := apiclient.ScanQuery{
		Barcode:   p.filter.Barcode,
		StartDate: p.filter.StartDate,
		EndDate:   p.filter.EndDate,
	}
	if paged {
		q.Page = &apiclient.Page{Skip: (p.filter.Page - 1) * PageSize, Limit: PageSize}
	}
	return q
}

func (p *Pipeline) emit(level notify.Level, msg string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(notify.Notification{Level: level, Message: msg})
}

func (p *Pipeline) logFailure(msg string, err error) {
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		p.log.Error(msg, "op", te.Op, "err", te.Err)
		return
	}
	p.log.Warn(msg, "err", err)
}
