package detect

import (
	"github.com/PuerkitoBio/goquery"
	"listingcrawler/pkg/listing"
)

// Verdict is the classification of a fetched page
type Verdict int

const (
	// Normal pages can be parsed for listings
	Normal Verdict = iota
	// InterceptionRequired pages are CAPTCHA or notice walls that need a human
	InterceptionRequired
)

func (v Verdict) String() string {
	switch v {
	case Normal:
		return "normal"
	case InterceptionRequired:
		return "interception_required"
	default:
		return "unknown"
	}
}

// DefaultSentinels are the texts alonhadat.com.vn shows on its verification wall
var DefaultSentinels = []string{
	"Vui lòng xác minh không phải Robot",
	"THÔNG BÁO",
}

// Detector flags pages containing a text node equal to one of its sentinels
type Detector struct {
	sentinels map[string]struct{}
}

// New creates a detector for the given sentinels, or DefaultSentinels when none are given
func New(sentinels ...string) *Detector {
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels
	}
	d := &Detector{sentinels: make(map[string]struct{}, len(sentinels))}
	for _, s := range sentinels {
		if c := listing.Clean(s); c != "" {
			d.sentinels[c] = struct{}{}
		}
	}
	return d
}

// Classify reports InterceptionRequired when any text node in doc matches a
// sentinel exactly after trimming. Partial matches inside longer text do not count.
func (d *Detector) Classify(doc *goquery.Document) Verdict {
	for _, t := range listing.TextNodes(doc.Selection) {
		if _, ok := d.sentinels[t]; ok {
			return InterceptionRequired
		}
	}
	return Normal
}
