package models

// ListingRecord is one real-estate listing extracted from an index page.
// Every field is always serialized; missing values are empty strings.
type ListingRecord struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	Area        string `json:"area"`
	Price       string `json:"price"`
	Floors      string `json:"floors"`
	Bedrooms    string `json:"bedrooms"`
	Address     string `json:"address"`
	RoadWidth   string `json:"road_width"`
	CarParking  string `json:"car_parking"`
	Description string `json:"description"`
	Orientation string `json:"orientation"`
	Dimension   string `json:"dimension"`
}

// PageOutcome is what happened to one page of the crawl
type PageOutcome string

const (
	// OutcomeWritten pages had listings and were saved to a page file
	OutcomeWritten PageOutcome = "written"
	// OutcomeEmpty pages had no listings; no file is written
	OutcomeEmpty PageOutcome = "empty"
	// OutcomeSkipped pages failed to fetch or were skipped after a verification pause
	OutcomeSkipped PageOutcome = "skipped"
	// OutcomeIntercepted pages hit a verification wall and paused the crawl
	OutcomeIntercepted PageOutcome = "intercepted"
)

// PageResult reports the outcome of processing one page. A page may be
// reported more than once when a verification pause is resumed.
type PageResult struct {
	Page    int         `json:"page"`
	URL     string      `json:"url"`
	Outcome PageOutcome `json:"outcome"`
	Records int         `json:"records"`
	Path    string      `json:"path,omitempty"`
	Err     error       `json:"-"`
}
