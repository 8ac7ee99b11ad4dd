package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"PriceSentinel/internal/model"
)

var priceRegex = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)`)

// ListingOptions controls how product tiles are found on the listing page.
type ListingOptions struct {
	ItemSelector  string // product tile
	NameSelector  string // first match inside a tile is the item name
	PriceSelector string // optional; when empty the whole tile text is searched
	MaxItems      int    // tiles beyond this are ignored, 0 means no limit
	NameMaxLen    int    // names are truncated to this many runes, 0 means no limit
}

// DefaultListingOptions match a typical retailer product grid.
func DefaultListingOptions() ListingOptions {
	return ListingOptions{
		ItemSelector: "div.product-tile, div.product, div.item",
		NameSelector: "h3, h2, a",
		MaxItems:     30,
		NameMaxLen:   50,
	}
}

// ListingFetcher scrapes a single product listing page over HTTP.
type ListingFetcher struct {
	URL       string
	UserAgent string
	Options   ListingOptions
	Client    *http.Client
}

// NewListingFetcher creates a fetcher with optional proxy support.
func NewListingFetcher(pageURL, userAgent string, opts ListingOptions, timeout time.Duration, proxyURL string) *ListingFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ListingFetcher{
		URL:       pageURL,
		UserAgent: userAgent,
		Options:   opts,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *ListingFetcher) Name() string {
	if u, err := url.Parse(f.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return "listing"
}

// Fetch downloads the listing page and extracts item prices.
func (f *ListingFetcher) Fetch(ctx context.Context) (model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch listing: status %d, body: %s", resp.StatusCode, string(body))
	}

	return ParseListing(resp.Body, f.Options)
}

// ParseListing extracts a snapshot from listing HTML. A page without any product tile is
// an empty listing; a page whose tiles yield no usable price returns ErrNoPrices.
func ParseListing(r io.Reader, opts ListingOptions) (model.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	tiles := doc.Find(opts.ItemSelector)
	if opts.MaxItems > 0 && tiles.Length() > opts.MaxItems {
		tiles = tiles.Slice(0, opts.MaxItems)
	}

	snap := model.Snapshot{}
	tiles.Each(func(_ int, tile *goquery.Selection) {
		name := strings.TrimSpace(tile.Find(opts.NameSelector).First().Text())
		name = truncateRunes(collapseSpace(name), opts.NameMaxLen)
		if name == "" {
			return
		}
		text := tile.Text()
		if opts.PriceSelector != "" {
			text = tile.Find(opts.PriceSelector).First().Text()
		}
		cents, ok := ParsePrice(text)
		if !ok {
			return
		}
		snap[name] = cents
	})

	if tiles.Length() > 0 && len(snap) == 0 {
		return nil, fmt.Errorf("parse listing: %d tiles: %w", tiles.Length(), ErrNoPrices)
	}
	return snap, nil
}

// ParsePrice finds the first dollar amount in text and returns it in cents.
// Fractions of a cent are truncated.
func ParsePrice(text string) (int64, bool) {
	m := priceRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	cents := d.Shift(2).IntPart()
	if cents < 0 {
		return 0, false
	}
	return cents, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
