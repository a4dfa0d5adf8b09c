package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection is the Firestore collection holding archived records
const DefaultCollection = "news_archive"

// Firestore is an Archive backed by a Firestore collection. The document ID
// is derived from the dedup key, so Firestore itself rejects duplicates.
type Firestore struct {
	client       *firestore.Client
	collection   string
	prefixLength int
	now          func() time.Time
}

type recordDoc struct {
	Timestamp  string    `firestore:"timestamp"`
	Analysis   string    `firestore:"analysis"`
	Summary    string    `firestore:"summary"`
	Source     string    `firestore:"source"`
	Commentary string    `firestore:"commentary"`
	CreatedAt  time.Time `firestore:"created_at"`
}

// FirestoreOption is a functional option for Firestore
type FirestoreOption func(*Firestore)

// WithCollection sets the collection name
func WithCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		f.collection = name
	}
}

// WithFirestorePrefixLength sets how many summary characters form the dedup key
func WithFirestorePrefixLength(n int) FirestoreOption {
	return func(f *Firestore) {
		f.prefixLength = n
	}
}

// New creates a Firestore archive
func New(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	f := &Firestore{
		client:       client,
		collection:   DefaultCollection,
		prefixLength: model.DefaultPrefixLength,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}

// DocumentID returns the document ID used for a summary
func DocumentID(summary string, prefixLength int) string {
	sum := sha256.Sum256([]byte(model.DedupKey(summary, prefixLength)))
	return hex.EncodeToString(sum[:])
}

func (f *Firestore) Load(ctx context.Context) ([]*model.Record, error) {
	iter := f.client.Collection(f.collection).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	records := []*model.Record{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate archive", goerr.V("collection", f.collection))
		}

		var doc recordDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode archive document", goerr.V("id", snap.Ref.ID))
		}
		records = append(records, &model.Record{
			Timestamp:  doc.Timestamp,
			Analysis:   doc.Analysis,
			Summary:    doc.Summary,
			Source:     doc.Source,
			Commentary: doc.Commentary,
		})
	}

	return records, nil
}

func (f *Firestore) AppendIfNew(ctx context.Context, record *model.Record) (bool, error) {
	if record == nil {
		return false, goerr.New("record is nil")
	}

	now := f.now()
	candidate := *record
	candidate.Stamp(now)

	id := DocumentID(record.Summary, f.prefixLength)
	doc := recordDoc{
		Timestamp:  candidate.Timestamp,
		Analysis:   candidate.Analysis,
		Summary:    candidate.Summary,
		Source:     candidate.Source,
		Commentary: candidate.Commentary,
		CreatedAt:  now,
	}

	if _, err := f.client.Collection(f.collection).Doc(id).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logging.From(ctx).Debug("record already archived", "id", id)
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to create archive document",
			goerr.V("collection", f.collection),
			goerr.V("id", id))
	}

	record.Timestamp = candidate.Timestamp
	logging.From(ctx).Info("record archived", "collection", f.collection, "id", id)
	return true, nil
}

func (f *Firestore) ListAll(ctx context.Context) ([]*model.Record, error) {
	return f.Load(ctx)
}

var _ Archive = &Firestore{}
