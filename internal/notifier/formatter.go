package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"PriceSentinel/internal/model"
)

// FormatOptions controls message rendering.
type FormatOptions struct {
	Title      string
	Currency   string // symbol prefixed to prices
	Location   *time.Location
	NameMaxLen int // item names are shortened to this many runes in messages
	TotalDrops int // number of drops before truncation to the top N
	ItemsCount int // items in the fresh snapshot
	LinePrefix string
}

func (o FormatOptions) loc() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// FormatPrice renders minor units with thousands separators, e.g. 123456 -> "$1,234.56".
// Whole amounts omit the cents.
func FormatPrice(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := humanize.Comma(cents / 100)
	if frac := cents % 100; frac != 0 {
		return fmt.Sprintf("%s%s%s.%02d", sign, currency, whole, frac)
	}
	return sign + currency + whole
}

// FormatDrops renders the drop notification for the given (already truncated) events.
func FormatDrops(events []model.DropEvent, now time.Time, opts FormatOptions) string {
	var b strings.Builder

	total := opts.TotalDrops
	if total < len(events) {
		total = len(events)
	}
	b.WriteString(fmt.Sprintf("📉 【%s price drops】%d items\n", opts.Title, total))
	b.WriteString(fmt.Sprintf("⏰ %s\n\n", now.In(opts.loc()).Format("2006-01-02 15:04:05 MST")))

	for _, e := range events {
		b.WriteString(fmt.Sprintf("%s%s %s→%s (-%s, -%.0f%%)\n",
			opts.LinePrefix,
			shorten(e.Item, opts.NameMaxLen),
			FormatPrice(e.Previous, opts.Currency),
			FormatPrice(e.Current, opts.Currency),
			FormatPrice(e.Magnitude, opts.Currency),
			e.Percent()))
	}
	if hidden := total - len(events); hidden > 0 {
		b.WriteString(fmt.Sprintf("…and %d more\n", hidden))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNoChange renders the summary sent when every run is reported.
func FormatNoChange(now time.Time, opts FormatOptions) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ 【%s】no price drops\n", opts.Title))
	b.WriteString(fmt.Sprintf("⏰ %s\n", now.In(opts.loc()).Format("2006-01-02 15:04:05 MST")))
	b.WriteString(fmt.Sprintf("Items checked: %d", opts.ItemsCount))
	return b.String()
}

// FormatReport renders a run report for the /status command.
func FormatReport(r *model.RunReport, opts FormatOptions) string {
	if r == nil {
		return "No run has completed yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 Last run %s\n", r.StartedAt.In(opts.loc()).Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Outcome: %s (%s)\n", r.Outcome, r.Duration().Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	b.WriteString(fmt.Sprintf("Items fetched: %d | Baseline: %d\n", r.FetchedItems, r.BaselineSize))
	b.WriteString(fmt.Sprintf("Drops: %d | Notified: %v | Saved: %v", len(r.Drops), r.Notified, r.Persisted))
	if r.FetchErr != nil {
		b.WriteString(fmt.Sprintf("\nFetch error: %v", r.FetchErr))
	}
	if r.StoreErr != nil {
		b.WriteString(fmt.Sprintf("\nStore error: %v", r.StoreErr))
	}
	return b.String()
}

// FormatBaseline lists the tracked item count and the n cheapest items.
func FormatBaseline(snap model.Snapshot, n int, opts FormatOptions) string {
	type entry struct {
		name  string
		price int64
	}
	entries := make([]entry, 0, len(snap))
	for k, v := range snap {
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].price != entries[j].price {
			return entries[i].price < entries[j].price
		}
		return entries[i].name < entries[j].name
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 Tracking %d items", len(snap)))
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("\n%s %s", shorten(e.name, opts.NameMaxLen), FormatPrice(e.price, opts.Currency)))
	}
	return b.String()
}

func shorten(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
