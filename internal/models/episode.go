package models

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrSourceUnavailable reports that the notes directory or one of its files could not be read.
	ErrSourceUnavailable = errors.New("episode source unavailable")
	// ErrMalformedEpisode reports an episode file with missing or unparseable required metadata.
	ErrMalformedEpisode = errors.New("malformed episode")
	// ErrNotFound reports that no episode satisfies a query.
	ErrNotFound = errors.New("episode not found")
)

// Episode represents the parsed show notes of a single episode.
type Episode struct {
	Number        int
	DisplayNumber string
	Date          time.Time
	DisplayDate   string
	HTML          string
	NotesFile     string

	// Meta holds the remaining front matter fields (title, guests, url, ...).
	Meta map[string]any

	// Picks is the "sick picks" section of the notes, nil when the episode has none.
	Picks *Section
}

// Section is a level-2 heading of the notes together with the blocks that follow it.
type Section struct {
	ID       string
	Heading  string
	BodyHTML string
}

// Title returns the title front matter field, if any.
func (e Episode) Title() string {
	title, _ := e.Meta["title"].(string)
	return title
}

// WithoutHTML returns a copy of the episode with the rendered body removed.
func (e Episode) WithoutHTML() Episode {
	e.HTML = ""
	return e
}

// MarshalJSON flattens Meta into the episode object. Typed fields take
// precedence over front matter keys with the same name.
func (e Episode) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Meta)+6)
	for key, value := range e.Meta {
		out[key] = value
	}

	out["number"] = e.Number
	out["displayNumber"] = e.DisplayNumber
	out["date"] = e.Date.UnixMilli()
	out["displayDate"] = e.DisplayDate
	out["notesFile"] = e.NotesFile
	if e.HTML != "" {
		out["html"] = e.HTML
	} else {
		delete(out, "html")
	}

	return json.Marshal(out)
}

// SickPick is one entry of the sick picks digest.
type SickPick struct {
	ID   int    `json:"id"`
	HTML string `json:"html"`
}

// Sparse is an episode listing where only the episodes around Current keep their HTML.
type Sparse struct {
	Episodes []Episode `json:"shows"`
	Current  Episode   `json:"show"`
}
