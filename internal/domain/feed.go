package domain

import "encoding/json"

// FeedEntry is one raw entry object from a worksheet feed's feed.entry list.
type FeedEntry json.RawMessage

// MarshalJSON returns the entry unchanged.
func (e FeedEntry) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	return []byte(e), nil
}

// WorksheetSummary is the wire form of a worksheet.
type WorksheetSummary struct {
	Index        int    `json:"index"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Updated      string `json:"updated,omitempty"`
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	CellsFeedURL string `json:"cells_feed_url,omitempty"`
}
