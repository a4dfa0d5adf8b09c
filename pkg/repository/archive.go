package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

// DefaultArchiveFile is the archive file name used when no path is configured
const DefaultArchiveFile = "news_archive.json"

// JSONArchive keeps the whole archive as one JSON array in a file. Every
// append reads, extends and rewrites the full file. It assumes a single
// writer; concurrent processes can lose each other's appends.
//
// Reads treat the file as a cache: a missing or unparseable file is an empty
// archive. Writes are durable: any failure is returned to the caller.
type JSONArchive struct {
	path         string
	prefixLength int
	now          func() time.Time
}

// JSONArchiveOption is a functional option for JSONArchive
type JSONArchiveOption func(*JSONArchive)

// WithPrefixLength sets how many summary characters form the dedup key.
// Zero or a negative value compares whole summaries.
func WithPrefixLength(n int) JSONArchiveOption {
	return func(a *JSONArchive) {
		a.prefixLength = n
	}
}

// WithClock replaces the time source used for timestamps
func WithClock(now func() time.Time) JSONArchiveOption {
	return func(a *JSONArchive) {
		a.now = now
	}
}

// NewJSONArchive creates an archive stored at path. The file is created on
// the first successful append.
func NewJSONArchive(path string, opts ...JSONArchiveOption) *JSONArchive {
	a := &JSONArchive{
		path:         path,
		prefixLength: model.DefaultPrefixLength,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Path returns the archive file path
func (a *JSONArchive) Path() string {
	return a.path
}

// Load never fails; the error return satisfies Archive.
func (a *JSONArchive) Load(ctx context.Context) ([]*model.Record, error) {
	entries := a.load(ctx)
	records := make([]*model.Record, len(entries))
	for i, e := range entries {
		records[i] = e.record
	}
	return records, nil
}

// archiveEntry keeps the stored bytes of a record next to its decoded form so
// rewriting the file does not touch records written by other tools.
type archiveEntry struct {
	raw    json.RawMessage
	record *model.Record
}

func (a *JSONArchive) load(ctx context.Context) []archiveEntry {
	var raws []json.RawMessage
	if _, err := readJSONFile(a.path, &raws); err != nil {
		logging.From(ctx).Warn("archive is unreadable, treating as empty",
			"path", a.path,
			"error", err)
		return []archiveEntry{}
	}

	entries := make([]archiveEntry, 0, len(raws))
	for i, raw := range raws {
		// drop JSON nulls inside the array
		if raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}

		var record model.Record
		if err := json.Unmarshal(raw, &record); err != nil {
			logging.From(ctx).Warn("archive is unreadable, treating as empty",
				"path", a.path,
				"index", i,
				"error", err)
			return []archiveEntry{}
		}
		entries = append(entries, archiveEntry{raw: raw, record: &record})
	}
	return entries
}

func (a *JSONArchive) AppendIfNew(ctx context.Context, record *model.Record) (bool, error) {
	if record == nil {
		return false, goerr.New("record is nil")
	}

	entries := a.load(ctx)

	key := model.DedupKey(record.Summary, a.prefixLength)
	for _, existing := range entries {
		if model.DedupKey(existing.record.Summary, a.prefixLength) == key {
			logging.From(ctx).Debug("record already archived",
				"key", key,
				"existing_timestamp", existing.record.Timestamp)
			return false, nil
		}
	}

	candidate := *record
	candidate.Stamp(a.now())

	raw, err := json.Marshal(&candidate)
	if err != nil {
		return false, goerr.Wrap(err, "failed to encode record")
	}

	raws := make([]json.RawMessage, 0, len(entries)+1)
	for _, e := range entries {
		raws = append(raws, e.raw)
	}
	raws = append(raws, raw)

	data, err := encodeJSON(raws)
	if err != nil {
		return false, goerr.Wrap(err, "failed to encode archive")
	}
	if err := writeFileAtomic(a.path, data, 0o600); err != nil {
		return false, goerr.Wrap(err, "failed to write archive", goerr.V("path", a.path))
	}

	record.Timestamp = candidate.Timestamp
	logging.From(ctx).Info("record archived",
		"path", a.path,
		"timestamp", candidate.Timestamp,
		"records", len(raws))

	return true, nil
}

func (a *JSONArchive) ListAll(ctx context.Context) ([]*model.Record, error) {
	return a.Load(ctx)
}

var _ Archive = &JSONArchive{}
