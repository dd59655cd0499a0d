// Package listing turns alonhadat.com.vn index pages into ListingRecords.
//
// Each div.content-item container becomes one record when it carries a
// titled link; every other field degrades to an empty string. Optional
// fields such as orientation, dimension, road width and parking are filled
// by Extractors, which are plain functions and can be tested or replaced
// individually. All extracted text is whitespace-collapsed and NFC-normalized.
package listing
