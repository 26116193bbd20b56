package domain

import "time"

// Item is a single inventory record. PhotoKey is empty when no photo is
// attached; otherwise it names the stored photo object.
type Item struct {
	ID          int64
	Name        string
	Description string
	PhotoKey    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *Item) HasPhoto() bool {
	return i.PhotoKey != ""
}
