package app

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
)

// Worksheet is one worksheet of a remote spreadsheet, built from its feed
// entry and paired with the client that fetched the feed.
type Worksheet struct {
	ID           string
	Title        string
	Updated      string
	Rows         int
	Cols         int
	CellsFeedURL string

	entry  domain.FeedEntry
	client ports.TransportClient
}

// NewWorksheet decodes the fields sheetbridge uses from entry.
// Missing fields are left zero; the raw entry is kept.
func NewWorksheet(entry domain.FeedEntry, client ports.TransportClient) Worksheet {
	e := gjson.ParseBytes(entry)
	return Worksheet{
		ID:           e.Get("id.$t").String(),
		Title:        e.Get("title.$t").String(),
		Updated:      e.Get("updated.$t").String(),
		Rows:         int(e.Get("gs$rowCount.$t").Int()),
		Cols:         int(e.Get("gs$colCount.$t").Int()),
		CellsFeedURL: e.Get(`link.#(rel%"*#cellsfeed").href`).String(),
		entry:        entry,
		client:       client,
	}
}

// Entry returns the raw feed entry.
func (w Worksheet) Entry() domain.FeedEntry { return w.entry }

// Client returns the transport client that fetched the parent feed.
func (w Worksheet) Client() ports.TransportClient { return w.client }

// Summary returns the wire form of w at position index.
func (w Worksheet) Summary(index int) domain.WorksheetSummary {
	return domain.WorksheetSummary{
		Index:        index,
		ID:           w.ID,
		Title:        w.Title,
		Updated:      w.Updated,
		Rows:         w.Rows,
		Cols:         w.Cols,
		CellsFeedURL: w.CellsFeedURL,
	}
}

// parseFeedEntries extracts the ordered feed.entry list from a worksheet
// feed body. A feed without entries yields an empty list.
func parseFeedEntries(body []byte) ([]domain.FeedEntry, error) {
	if !gjson.ValidBytes(body) {
		return nil, &domain.DecodeError{What: "worksheet feed", Err: errors.New("invalid json")}
	}
	feed := gjson.GetBytes(body, "feed")
	if !feed.IsObject() {
		return nil, &domain.DecodeError{What: "worksheet feed", Err: errors.New("missing feed object")}
	}

	entries := feed.Get("entry")
	if !entries.Exists() {
		return []domain.FeedEntry{}, nil
	}
	if !entries.IsArray() {
		return nil, &domain.DecodeError{What: "worksheet feed", Err: errors.New("feed.entry is not a list")}
	}

	items := entries.Array()
	out := make([]domain.FeedEntry, 0, len(items))
	for _, item := range items {
		out = append(out, domain.FeedEntry(item.Raw))
	}
	return out, nil
}
