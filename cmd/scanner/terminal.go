package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"scanlog/frontend/query"
	"scanlog/frontend/scan"
	"scanlog/frontend/shared/notify"
	"scanlog/infrastructure/dateutil"
)

// terminalView stands in for the browser input. A terminal always has the
// keyboard, so focus is only tracked for the pipeline's benefit.
type terminalView struct {
	mu      sync.Mutex
	focused bool
}

func (v *terminalView) Focused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused
}

func (v *terminalView) Focus() {
	v.mu.Lock()
	v.focused = true
	v.mu.Unlock()
}

func (v *terminalView) ClearInput() {}

func printer(out io.Writer) notify.Notifier {
	var mu sync.Mutex
	return notify.Func(func(n notify.Notification) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "[%s] %s\n", strings.ToUpper(n.Level.String()), n.Message)
	})
}

func printRecent(out io.Writer, entries []scan.RecentEntry) {
	if len(entries) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BARCODE\tTIME\tSTATUS")
	for _, e := range entries {
		status := "recorded"
		if e.IsDuplicate {
			status = "duplicate"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Barcode, e.SubmittedAt, status)
	}
	tw.Flush()
}

func printPage(out io.Writer, st query.State, loc *time.Location) {
	if len(st.Scans) == 0 {
		fmt.Fprintln(out, "No records")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tBARCODE\tSCANNED AT\tNOTES")
		for _, sc := range st.Scans {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", sc.ID, sc.Barcode, dateutil.FormatDateTime(sc.ScannedAt.In(loc)), sc.NoteText())
		}
		tw.Flush()
	}

	fmt.Fprintf(out, "page %d of %d (%d records)", st.Filter.Page, st.TotalPages, st.Total)
	if len(st.Window) > 0 {
		parts := make([]string, 0, len(st.Window))
		for _, p := range st.Window {
			if p == st.Filter.Page {
				parts = append(parts, fmt.Sprintf("[%d]", p))
				continue
			}
			parts = append(parts, fmt.Sprintf("%d", p))
		}
		fmt.Fprintf(out, "  pages: %s", strings.Join(parts, " "))
	}
	fmt.Fprintln(out)
}
