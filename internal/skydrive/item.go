package skydrive

import (
	"log/slog"
	"time"
)

// Kind is the item type reported by the service.
type Kind string

const (
	KindFolder Kind = "folder"
	KindAlbum  Kind = "album"
	KindFile   Kind = "file"
)

// IsContainer reports whether items of this kind hold children.
func (k Kind) IsContainer() bool {
	return k == KindFolder || k == KindAlbum
}

// Item mirrors the item resource JSON. Identity is ID.
type Item struct {
	ID          string `json:"id"`
	Type        Kind   `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	Count       int    `json:"count"`
	Size        int64  `json:"size"`
	CreatedTime string `json:"created_time"`
	UpdatedTime string `json:"updated_time"`
}

// itemUpdate is the body for metadata updates. Both fields are always
// sent, so an empty description clears the remote one.
type itemUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// folderCreate is the body for folder creation.
type folderCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// itemList is the envelope of a folder listing.
type itemList struct {
	Data []Item `json:"data"`
}

// Timestamp layouts seen in item resources. The service omits the colon in
// the zone offset, which RFC 3339 requires.
var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// parseTime parses an item timestamp. Empty or unparseable values yield the
// zero time; unparseable ones are logged.
func parseTime(raw, field, itemID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	logger.Warn("invalid timestamp",
		slog.String("field", field),
		slog.String("item_id", itemID),
		slog.String("raw", raw),
	)

	return time.Time{}
}
