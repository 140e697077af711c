package models

import "time"

// ItemSource defines the set of known provenances for a saved item.
type ItemSource string

const (
	ItemSourceManual  ItemSource = "manual"
	ItemSourcePocket  ItemSource = "pocket"
	ItemSourceYouTube ItemSource = "youtube"
)

type Item struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Source    ItemSource `json:"source"`
	WordCount int        `json:"word_count,omitempty"`
	TimeAdded time.Time  `json:"time_added"`
}
