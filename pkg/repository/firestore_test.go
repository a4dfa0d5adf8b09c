package repository_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	collection := fmt.Sprintf("test_news_archive_%d", time.Now().UnixNano())
	repo, err := repository.New(context.Background(), projectID, databaseID, repository.WithCollection(collection))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestFirestoreAppendIfNew(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	record := &model.Record{
		Analysis:   "analysis",
		Summary:    "AI news about robotics breakthrough",
		Source:     "TechSite",
		Commentary: "commentary",
	}

	added, err := repo.AppendIfNew(ctx, record)
	gt.NoError(t, err)
	gt.True(t, added)

	dup := &model.Record{Summary: "AI news about robotics breakthrough"}
	added, err = repo.AppendIfNew(ctx, dup)
	gt.NoError(t, err)
	gt.False(t, added)

	records, err := repo.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].Source, "TechSite")
}

func TestFirestoreOrder(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	for _, s := range []string{"first", "second", "third"} {
		added, err := repo.AppendIfNew(ctx, &model.Record{Summary: s})
		gt.NoError(t, err)
		gt.True(t, added)
	}

	records, err := repo.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(3)
	gt.Equal(t, records[0].Summary, "first")
	gt.Equal(t, records[2].Summary, "third")
}

func TestDocumentID(t *testing.T) {
	a := repository.DocumentID(strings.Repeat("A", 50)+"xx", 50)
	b := repository.DocumentID(strings.Repeat("A", 50)+"yy", 50)
	gt.Equal(t, a, b)
	gt.NotEqual(t, repository.DocumentID("one", 50), repository.DocumentID("two", 50))
}
