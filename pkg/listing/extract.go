package listing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"listingcrawler/pkg/models"
)

var (
	orientationRe = regexp.MustCompile(`Hướng[:：]\s*([^\s,]+)`)
	dimensionRe   = regexp.MustCompile(`KT[:：]\s*([\d.x]+)`)
)

const (
	roadWidthLabel  = "Đường trước nhà"
	carParkingLabel = "Chỗ để xe"
)

// Extractor fills optional fields of rec from the listing container item.
// Extractors run after the primary fields are set and may read rec.Description.
type Extractor func(item *goquery.Selection, rec *models.ListingRecord)

// DefaultExtractors returns the enrichment extractors applied to every listing
func DefaultExtractors() []Extractor {
	return []Extractor{
		func(_ *goquery.Selection, rec *models.ListingRecord) {
			rec.Orientation = ExtractOrientation(rec.Description)
		},
		func(_ *goquery.Selection, rec *models.ListingRecord) {
			rec.Dimension = ExtractDimension(rec.Description)
		},
		func(item *goquery.Selection, rec *models.ListingRecord) {
			rec.RoadWidth = ExtractTitledValue(item, roadWidthLabel)
		},
		func(item *goquery.Selection, rec *models.ListingRecord) {
			rec.CarParking = ExtractTitledValue(item, carParkingLabel)
		},
	}
}

// ExtractOrientation returns the facing direction following "Hướng:" in description
func ExtractOrientation(description string) string {
	if m := orientationRe.FindStringSubmatch(Clean(description)); m != nil {
		return m[1]
	}
	return ""
}

// ExtractDimension returns the lot dimensions following "KT:" in description, e.g. "5x12"
func ExtractDimension(description string) string {
	if m := dimensionRe.FindStringSubmatch(Clean(description)); m != nil {
		return m[1]
	}
	return ""
}

// ExtractTitledValue scans span[title] elements in item for one whose title
// contains label and returns the text after its first colon. The last match wins.
func ExtractTitledValue(item *goquery.Selection, label string) string {
	label = Clean(label)
	value := ""
	item.Find("span[title]").Each(func(_ int, s *goquery.Selection) {
		title := Clean(s.AttrOr("title", ""))
		if !strings.Contains(title, label) {
			return
		}
		if _, after, ok := strings.Cut(title, ":"); ok {
			value = strings.TrimSpace(after)
		}
	})
	return value
}
