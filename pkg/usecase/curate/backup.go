package curate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/adapter"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

// BackupKey returns the default object key for a snapshot taken at t
func BackupKey(t time.Time) string {
	return "archives/news_archive-" + t.Local().Format("20060102-150405") + ".json"
}

// Backup writes every archived record to storage at key. An empty key uses
// BackupKey of the current time. It returns the key and the record count.
func (u *UseCase) Backup(ctx context.Context, storage adapter.Storage, key string) (string, int, error) {
	if key == "" {
		key = BackupKey(time.Now())
	}

	records, err := u.archive.ListAll(ctx)
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to list archive")
	}

	w, err := storage.Put(ctx, key)
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to open backup object", goerr.V("key", key))
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		_ = w.Close()
		return "", 0, goerr.Wrap(err, "failed to write backup", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", 0, goerr.Wrap(err, "failed to close backup object", goerr.V("key", key))
	}

	logging.From(ctx).Info("archive backed up", "key", key, "records", len(records))
	return key, len(records), nil
}

// Restore appends records from a snapshot at key that are not archived yet.
// Restored records get a fresh timestamp. It returns the number added.
func (u *UseCase) Restore(ctx context.Context, storage adapter.Storage, key string) (int, error) {
	r, err := storage.Get(ctx, key)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open backup object", goerr.V("key", key))
	}
	defer r.Close()

	var records []*model.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, goerr.Wrap(err, "failed to decode backup", goerr.V("key", key))
	}

	added := 0
	for _, record := range records {
		if record == nil || record.Summary == "" {
			continue
		}
		ok, err := u.archive.AppendIfNew(ctx, record)
		if err != nil {
			return added, goerr.Wrap(err, "failed to restore record", goerr.V("key", key))
		}
		if ok {
			added++
		}
	}

	logging.From(ctx).Info("archive restored", "key", key, "read", len(records), "added", added)
	return added, nil
}
