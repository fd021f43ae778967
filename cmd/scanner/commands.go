package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"scanlog/frontend/query"
	"scanlog/frontend/scan"
	"scanlog/infrastructure/dateutil"
)

// filterFlags are shared by list and export.
type filterFlags struct {
	barcode string
	from    string
	to      string
	preset  string
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.barcode, "barcode", "", "only records whose barcode contains this text")
	fs.StringVar(&f.from, "from", "", "first scan date, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "last scan date, YYYY-MM-DD (inclusive)")
	fs.StringVar(&f.preset, "range", "", "quick range: today, yesterday, week or month")
}

// patch resolves the flags into a filter patch. An explicit -from or -to
// overrides the matching end of -range.
func (f *filterFlags) patch(now time.Time, loc *time.Location) (query.FilterPatch, error) {
	var start, end time.Time
	if f.preset != "" {
		r, ok := dateutil.RangeFor(f.preset, now.In(loc))
		if !ok {
			return query.FilterPatch{}, fmt.Errorf("unknown range %q", f.preset)
		}
		start, end = r.Start, r.End
	}
	if f.from != "" {
		d, err := dateutil.ParseDate(f.from, loc)
		if err != nil {
			return query.FilterPatch{}, fmt.Errorf("invalid -from date %q", f.from)
		}
		start = d
	}
	if f.to != "" {
		d, err := dateutil.ParseDate(f.to, loc)
		if err != nil {
			return query.FilterPatch{}, fmt.Errorf("invalid -to date %q", f.to)
		}
		end = d
	}
	barcode := strings.TrimSpace(f.barcode)
	return query.FilterPatch{Barcode: &barcode, StartDate: &start, EndDate: &end}, nil
}

func (s *station) newPipeline(exportDir string) *query.Pipeline {
	return query.NewPipeline(s.api, printer(s.out), query.FileSaver{Dir: exportDir}, query.Options{
		Location: s.loc,
		Now:      s.now,
		Logger:   s.log,
	})
}

func (s *station) runScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(s.out)
	auto := fs.Bool("auto", false, "submit after the debounce delay instead of on each line")
	notes := fs.String("notes", "", "notes attached to every scan in this session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sub := scan.NewSubmitter(s.api, &terminalView{}, printer(s.out), scan.Options{
		Debounce:      s.cfg.Scanner.Debounce,
		FocusInterval: s.cfg.Scanner.FocusInterval,
		Location:      s.loc,
		Now:           s.now,
		Logger:        s.log,
	})
	sub.Mount(ctx)
	defer sub.Unmount()
	sub.SetNotes(*notes)

	fmt.Fprintln(s.out, "ready, scan a barcode (Ctrl-D to finish)")
	lines := bufio.NewScanner(s.in)
	for lines.Scan() {
		if ctx.Err() != nil {
			break
		}
		sub.SetValue(lines.Text())
		if *auto {
			continue
		}
		// Failures are already reported through the notifier.
		_ = sub.PressEnter()
	}
	if *auto {
		if err := sub.Wait(ctx); err != nil {
			return err
		}
	}

	printRecent(s.out, sub.Recent())
	return lines.Err()
}

func (s *station) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(s.out)
	var ff filterFlags
	ff.register(fs)
	page := fs.Int("page", 1, "page number, 1-based")
	if err := fs.Parse(args); err != nil {
		return err
	}

	patch, err := ff.patch(s.now(), s.loc)
	if err != nil {
		return err
	}

	p := s.newPipeline("")
	if err := p.ApplyFilter(patch); err != nil {
		return err
	}
	if err := p.SetPage(ctx, *page); errors.Is(err, query.ErrInvalidPage) {
		return err
	}
	// Load failures are notified; the empty page is still printed.
	printPage(s.out, p.State(), s.loc)
	return nil
}

func (s *station) runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(s.out)
	var ff filterFlags
	ff.register(fs)
	out := fs.String("out", s.cfg.Scanner.ExportDir, "directory the spreadsheet is saved in")
	if err := fs.Parse(args); err != nil {
		return err
	}

	patch, err := ff.patch(s.now(), s.loc)
	if err != nil {
		return err
	}

	p := s.newPipeline(*out)
	if err := p.ApplyFilter(patch); err != nil {
		return err
	}
	_, err = p.Export(ctx)
	return err
}

func (s *station) runClear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(s.out)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := s.newPipeline("")
	p.RequestClear()
	if !*yes {
		fmt.Fprint(s.out, "Delete every scan record? This cannot be undone. Type 'yes' to confirm: ")
		answer, _ := bufio.NewReader(s.in).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
			p.CancelClear()
			fmt.Fprintln(s.out, "cancelled")
			return nil
		}
	}
	return p.ConfirmClear(ctx)
}
