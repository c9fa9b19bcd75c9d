package hn

// Item is a single entry from the Hacker News item API. Stories and
// comments share the same shape and the same id namespace; which fields
// are populated depends on Type.
type Item struct {
	ID          int64   `json:"id"`
	Deleted     bool    `json:"deleted"`
	Type        string  `json:"type"` // story, comment, job, poll, pollopt
	By          string  `json:"by"`
	Time        int64   `json:"time"` // unix seconds
	Text        string  `json:"text"` // HTML fragment
	Dead        bool    `json:"dead"`
	Parent      int64   `json:"parent"`
	Kids        []int64 `json:"kids"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Descendants int     `json:"descendants"`
}

// IsGone reports whether the item has been deleted or killed upstream.
// Such items carry no usable content but may still reference live kids.
func (i *Item) IsGone() bool {
	return i.Deleted || i.Dead
}
