package scan

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
	"scanlog/infrastructure/debounce"
)

const (
	DefaultDebounce      = 2 * time.Second
	DefaultFocusInterval = 100 * time.Millisecond
)

// Options tunes a Submitter. Zero values take the defaults.
type Options struct {
	Debounce      time.Duration
	FocusInterval time.Duration
	Location      *time.Location
	Now           func() time.Time
	Logger        *slog.Logger
}

// Submitter owns the barcode input state machine of one scanning view:
// Idle, then Submitting while a request is in flight, then Idle again.
// Input changes are debounced; Enter and explicit submits go immediately.
// At most one submission is in flight at a time.
type Submitter struct {
	api      ScanCreator
	view     View
	notifier notify.Notifier
	focus    *FocusKeeper
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger

	debouncer *debounce.Debouncer[string]

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	value      string
	notes      string
	submitting bool
	// inflight is closed when the current submission, side effects
	// included, has finished. Nil while Idle.
	inflight chan struct{}
	recent   Recent
}

// NewSubmitter returns an unmounted Submitter that sends scans through api.
func NewSubmitter(api ScanCreator, view View, notifier notify.Notifier, opts Options) *Submitter {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Submitter{
		api:      api,
		view:     view,
		notifier: notifier,
		focus:    NewFocusKeeper(view, opts.FocusInterval),
		loc:      opts.Location,
		now:      opts.Now,
		log:      opts.Logger.With("component", "scan"),
		ctx:      context.Background(),
	}
	s.debouncer = debounce.New(opts.Debounce, func(v string) {
		_ = s.submit(v)
	})
	return s
}

// Mount ties the pipeline to a live view: focus is taken and kept until
// Unmount, and requests are bound to ctx.
func (s *Submitter) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	mounted := s.ctx
	s.mu.Unlock()

	s.view.Focus()
	s.focus.Stop()
	s.focus.Start(mounted)
}

// Unmount cancels the pending debounce, stops the focus keeper and
// cancels any request still in flight.
func (s *Submitter) Unmount() {
	s.debouncer.Cancel()
	s.focus.Stop()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// SetValue records an input change and restarts the debounce timer when the
// value is non-empty. Changes are ignored while a submission is in flight.
func (s *Submitter) SetValue(v string) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return
	}
	s.value = v
	s.mu.Unlock()

	if v != "" {
		s.debouncer.Trigger(v)
	}
}

func (s *Submitter) SetNotes(n string) {
	s.mu.Lock()
	s.notes = n
	s.mu.Unlock()
}

// PressEnter cancels any pending debounce and submits the current value.
func (s *Submitter) PressEnter() error {
	s.debouncer.Cancel()
	return s.submit(s.Value())
}

// Submit sends the current value immediately.
func (s *Submitter) Submit() error {
	s.debouncer.Cancel()
	return s.submit(s.Value())
}

func (s *Submitter) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Submitter) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Recent returns the recent activity, newest first.
func (s *Submitter) Recent() []RecentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.Entries()
}

// DebouncePending reports whether a debounced submit is scheduled.
func (s *Submitter) DebouncePending() bool {
	return s.debouncer.Pending()
}

// Wait blocks until no debounced submit is scheduled and no submission is
// in flight, or until ctx is done.
func (s *Submitter) Wait(ctx context.Context) error {
	if err := s.debouncer.Wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	inflight := s.inflight
	s.mu.Unlock()
	if inflight == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-inflight:
		return nil
	}
}

func (s *Submitter) submit(raw string) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	barcode := strings.TrimSpace(raw)
	if barcode == "" {
		s.mu.Unlock()
		s.emit(notify.LevelError, msgInvalidBarcode)
		s.view.Focus()
		return ErrInvalidBarcode
	}
	s.submitting = true
	done := make(chan struct{})
	s.inflight = done
	ctx := s.ctx
	notes := strings.TrimSpace(s.notes)
	s.mu.Unlock()

	// Idle only once the notifier and view have been updated.
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.inflight = nil
		s.mu.Unlock()
		close(done)
	}()

	resp, err := s.api.CreateScan(ctx, apiclient.CreateScanRequest{Barcode: barcode, Notes: notes})

	s.mu.Lock()
	if err != nil {
		s.mu.Unlock()
		s.logFailure(barcode, err)
		s.emit(notify.LevelError, apiclient.UserMessage(err, msgSubmitFailed))
		s.view.Focus()
		return err
	}
	s.recent.Add(RecentEntry{
		Barcode:     barcode,
		SubmittedAt: dateutil.FormatTime(s.now().In(s.loc)),
		IsDuplicate: resp.IsDuplicate,
	})
	s.value = ""
	s.mu.Unlock()

	s.view.ClearInput()
	s.view.Focus()
	if resp.IsDuplicate {
		s.emit(notify.LevelWarning, resp.Message)
	} else {
		s.emit(notify.LevelSuccess, resp.Message)
	}
	return nil
}

func (s *Submitter) emit(level notify.Level, msg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(notify.Notification{Level: level, Message: msg})
}

func (s *Submitter) logFailure(barcode string, err error) {
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		s.log.Error("scan submission failed", "barcode", barcode, "op", te.Op, "err", te.Err)
		return
	}
	s.log.Warn("scan submission rejected", "barcode", barcode, "err", err)
}
