package listing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/models"
)

const (
	containerSelector = "div.content-item"
	areaPrefix        = "Diện tích:"
	pricePrefix       = "Giá:"
)

// Parser extracts listing records from a parsed index page
type Parser struct {
	base       *url.URL
	extractors []Extractor
	logger     logger.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithExtractors replaces the default enrichment extractors
func WithExtractors(extractors ...Extractor) Option {
	return func(p *Parser) {
		p.extractors = extractors
	}
}

// WithLogger sets the logger used to report dropped items
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// NewParser creates a parser that resolves listing links against baseURL
func NewParser(baseURL string, opts ...Option) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	p := &Parser{
		base:       base,
		extractors: DefaultExtractors(),
		logger:     logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse returns one record per listing container that has a title and a
// resolvable link, in document order. A failure inside one container only
// drops that container.
func (p *Parser) Parse(doc *goquery.Document) []models.ListingRecord {
	records := make([]models.ListingRecord, 0)
	doc.Find(containerSelector).Each(func(i int, item *goquery.Selection) {
		if rec, ok := p.parseItem(i, item); ok {
			records = append(records, rec)
		}
	})
	return records
}

func (p *Parser) parseItem(index int, item *goquery.Selection) (rec models.ListingRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WarnWithFields("dropping listing item", map[string]interface{}{
				"index": index,
				"panic": fmt.Sprint(r),
			})
			rec, ok = models.ListingRecord{}, false
		}
	}()

	anchor := item.Find("div.ct_title").First().Find("a").First()
	if anchor.Length() == 0 {
		return rec, false
	}
	href, exists := anchor.Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return rec, false
	}
	title := text(anchor)
	if title == "" {
		return rec, false
	}
	link, err := p.resolve(href)
	if err != nil {
		p.logger.DebugWithFields("unresolvable listing link", map[string]interface{}{
			"index": index,
			"href":  href,
		})
		return rec, false
	}

	rec = models.ListingRecord{
		Title:       title,
		URL:         link,
		Date:        text(item.Find("div.ct_date").First()),
		Area:        stripLabel(text(item.Find("div.ct_dt").First()), areaPrefix),
		Price:       stripLabel(text(item.Find("div.ct_price").First()), pricePrefix),
		Floors:      Clean(item.Find("span.floors").First().AttrOr("title", "")),
		Bedrooms:    Clean(item.Find("span.bedroom").First().AttrOr("title", "")),
		Address:     joinedText(item.Find("div.ct_dis").First(), ", "),
		Description: joinedText(item.Find("div.ct_content").First(), " "),
	}

	for _, extract := range p.extractors {
		extract(item, &rec)
	}
	return rec, true
}

func (p *Parser) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return p.base.ResolveReference(ref).String(), nil
}

func stripLabel(s, label string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, Clean(label), ""))
}
