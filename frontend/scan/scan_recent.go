package scan

// RecentLimit caps the recent activity list.
const RecentLimit = 10

// RecentEntry is one submission outcome shown to the operator. Entries live
// only as long as the pipeline that produced them.
type RecentEntry struct {
	Barcode     string
	SubmittedAt string
	IsDuplicate bool
}

// Recent is a newest-first list holding at most RecentLimit entries.
// It is not safe for concurrent use; Submitter guards it.
type Recent struct {
	entries []RecentEntry
}

// Add prepends e, evicting the oldest entry when full.
func (r *Recent) Add(e RecentEntry) {
	n := min(len(r.entries)+1, RecentLimit)
	next := make([]RecentEntry, n)
	next[0] = e
	copy(next[1:], r.entries)
	r.entries = next
}

// Entries returns a copy, newest first.
func (r *Recent) Entries() []RecentEntry {
	return append([]RecentEntry(nil), r.entries...)
}

func (r *Recent) Len() int {
	return len(r.entries)
}
