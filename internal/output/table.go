package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mobil-koeln/tickets/internal/models"
)

// Column limits for the ticket table
const (
	shortIDLen     = 8
	maxNamesWidth  = 24
	maxLocWidth    = 20
	maxIssueWidth  = 48
	columnGap      = "  "
	truncateMarker = "~"
)

// TableOptions configures the table output
type TableOptions struct {
	Colors *Colors
	// FullIDs prints document ids unshortened.
	FullIDs bool
}

func (o TableOptions) colors() *Colors {
	if o.Colors == nil {
		return NewColors(ColorNever)
	}
	return o.Colors
}

// RenderTickets renders the collection as an aligned table in mirror order
func RenderTickets(w io.Writer, tickets models.Collection, opts TableOptions) {
	if tickets.Len() == 0 {
		_, _ = fmt.Fprintln(w, "No tickets found.")
		return
	}

	c := opts.colors()

	// Size columns to their content, capped
	idWidth, namesWidth, locWidth := len("ID"), len("NAMES"), len("LOCATION")
	for _, t := range tickets.Tickets() {
		idWidth = max(idWidth, utf8.RuneCountInString(displayID(t.ID, opts.FullIDs)))
		namesWidth = max(namesWidth, min(utf8.RuneCountInString(t.Names), maxNamesWidth))
		locWidth = max(locWidth, min(utf8.RuneCountInString(t.Location), maxLocWidth))
	}

	header := strings.Join([]string{
		PadRight("ID", idWidth),
		PadRight("NAMES", namesWidth),
		PadRight("LOCATION", locWidth),
		"ISSUE",
	}, columnGap)
	_, _ = fmt.Fprintln(w, c.Header("%s", header))

	for _, t := range tickets.Tickets() {
		_, _ = fmt.Fprintf(w, "%s%s%s%s%s%s%s\n",
			c.ID("%s", PadRight(displayID(t.ID, opts.FullIDs), idWidth)),
			columnGap,
			c.Names("%s", PadRight(Truncate(t.Names, namesWidth), namesWidth)),
			columnGap,
			c.Location("%s", PadRight(Truncate(t.Location, locWidth), locWidth)),
			columnGap,
			c.Issue("%s", Truncate(t.Issue, maxIssueWidth)),
		)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, c.Muted("%d %s", tickets.Len(), plural(tickets.Len(), "ticket", "tickets")))
}

// RenderTicket renders a single ticket with every field in full
func RenderTicket(w io.Writer, t models.Ticket, opts TableOptions) {
	c := opts.colors()

	_, _ = fmt.Fprintf(w, "%s %s\n", c.Header("Ticket"), c.ID("%s", t.ID))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Label("%s", PadRight("Names:", 10)), c.Names("%s", t.Names))
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Label("%s", PadRight("Location:", 10)), c.Location("%s", t.Location))
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Label("%s", PadRight("Issue:", 10)), c.Issue("%s", t.Issue))
}

func displayID(id string, full bool) string {
	if full || utf8.RuneCountInString(id) <= shortIDLen {
		return id
	}
	return string([]rune(id)[:shortIDLen])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// PadRight pads s with spaces to width runes
func PadRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// Truncate shortens s to width runes, marking the cut
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= len(truncateMarker) {
		return string(r[:width])
	}
	return string(r[:width-1]) + truncateMarker
}
