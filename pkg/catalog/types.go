package catalog

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrTagNotFound   = errors.New("tag not found")
	ErrEmptyTagName  = errors.New("tag name is empty")
	ErrEmptyFilePath = errors.New("file path is empty")
	ErrEmptyName     = errors.New("entry name is empty")
)

// DefaultTags are seeded into every catalog during setup and survive a
// replace-style import.
var DefaultTags = []string{"FDM", "Resin"}

// Entry is a cataloged model record: one main file plus zero or more
// related files bundled as a multi-part assembly.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	FilePath    string    `json:"file_path"`
	Name        string    `json:"name"`
	DateAdded   float64   `json:"date_added"`
	IsMultiPart bool      `json:"is_multi_part"`
}

// EntrySummary is the listing shape returned by ListEntries.
type EntrySummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	FilePath string    `json:"file_path"`
}

// EntryDetails is an Entry together with its comma-joined tag names
// (empty string when untagged) and related file paths sorted by path.
type EntryDetails struct {
	Entry
	Tags         string   `json:"tags"`
	RelatedFiles []string `json:"related_files"`
}

// Tag is a global, reusable label; many-to-many with entries.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
