package model

import (
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrEmptySummary = goerr.New("summary is empty")
)

// Curation is the parsed output of a news curation request
type Curation struct {
	Analysis   string
	Summary    string
	Source     string
	Commentary string
	Raw        string
	ModelUsed  string

	// Structured is false when neither analysis nor summary could be extracted
	Structured bool
	// Archived reports whether the curation was appended to the archive
	Archived bool
}

// Record converts the curation into an archive candidate. Timestamp is left
// for the archive to assign.
func (c *Curation) Record() *Record {
	return &Record{
		Analysis:   c.Analysis,
		Summary:    c.Summary,
		Source:     c.Source,
		Commentary: c.Commentary,
	}
}

// Validate checks that the record can be archived
func (r *Record) Validate() error {
	if r.Summary == "" {
		return ErrEmptySummary
	}
	return nil
}
