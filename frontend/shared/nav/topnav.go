package nav

// Link is one entry of the top navigation bar.
type Link struct {
	Label  string
	Href   string
	Active bool
}

var pages = []Link{
	{Label: "Scan", Href: "/scan"},
	{Label: "Query", Href: "/query"},
	{Label: "Help", Href: "/help"},
}

// BuildTopNav marks the link whose Href equals activePath.
func BuildTopNav(activePath string) []Link {
	out := make([]Link, len(pages))
	for i, l := range pages {
		l.Active = l.Href == activePath
		out[i] = l
	}
	return out
}
