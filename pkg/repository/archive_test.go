package repository_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/repository"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 2, 14, 9, 30, 0, 0, time.Local)
	}
}

func newArchive(t *testing.T, opts ...repository.JSONArchiveOption) (*repository.JSONArchive, string) {
	path := filepath.Join(t.TempDir(), "news_archive.json")
	return repository.NewJSONArchive(path, opts...), path
}

func readArchiveFile(t *testing.T, path string) []model.Record {
	data, err := os.ReadFile(path)
	gt.NoError(t, err)

	var records []model.Record
	gt.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestJSONArchiveScenario(t *testing.T) {
	ctx := context.Background()
	archive, path := newArchive(t, repository.WithClock(fixedClock()))

	record := &model.Record{
		Summary:    "AI news about robotics breakthrough",
		Analysis:   "...",
		Source:     "TechSite",
		Commentary: "...",
	}
	added, err := archive.AppendIfNew(ctx, record)
	gt.NoError(t, err)
	gt.True(t, added)
	gt.Equal(t, record.Timestamp, "2026-02-14 09:30:00")

	stored := readArchiveFile(t, path)
	gt.A(t, stored).Length(1)
	gt.Equal(t, stored[0].Timestamp, "2026-02-14 09:30:00")
	gt.Equal(t, stored[0].Source, "TechSite")

	added, err = archive.AppendIfNew(ctx, &model.Record{
		Summary:    "AI news about robotics breakthrough",
		Analysis:   "another analysis",
		Source:     "OtherSite",
		Commentary: "another commentary",
	})
	gt.NoError(t, err)
	gt.False(t, added)
	gt.A(t, readArchiveFile(t, path)).Length(1)
}

func TestJSONArchiveIdempotentAppend(t *testing.T) {
	ctx := context.Background()
	archive, _ := newArchive(t)

	summary := strings.Repeat("生成AIがロボット制御を変える。", 5)
	added, err := archive.AppendIfNew(ctx, &model.Record{Summary: summary})
	gt.NoError(t, err)
	gt.True(t, added)

	added, err = archive.AppendIfNew(ctx, &model.Record{Summary: summary})
	gt.NoError(t, err)
	gt.False(t, added)

	records, err := archive.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, model.DedupKey(records[0].Summary, 50), model.DedupKey(summary, 50))
}

func TestJSONArchivePrefixCollision(t *testing.T) {
	ctx := context.Background()
	archive, _ := newArchive(t)

	first := strings.Repeat("A", 60)
	second := strings.Repeat("A", 50) + strings.Repeat("B", 10)

	added, err := archive.AppendIfNew(ctx, &model.Record{Summary: first, Source: "first"})
	gt.NoError(t, err)
	gt.True(t, added)

	added, err = archive.AppendIfNew(ctx, &model.Record{Summary: second, Source: "second"})
	gt.NoError(t, err)
	gt.False(t, added)

	records, err := archive.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].Source, "first")
}

func TestJSONArchivePrefixLengthOption(t *testing.T) {
	ctx := context.Background()

	t.Run("short prefix collides earlier", func(t *testing.T) {
		archive, _ := newArchive(t, repository.WithPrefixLength(3))
		added, err := archive.AppendIfNew(ctx, &model.Record{Summary: "abcdef"})
		gt.NoError(t, err)
		gt.True(t, added)

		added, err = archive.AppendIfNew(ctx, &model.Record{Summary: "abcXYZ"})
		gt.NoError(t, err)
		gt.False(t, added)
	})

	t.Run("summary shorter than prefix compares whole string", func(t *testing.T) {
		archive, _ := newArchive(t)
		added, err := archive.AppendIfNew(ctx, &model.Record{Summary: "short"})
		gt.NoError(t, err)
		gt.True(t, added)

		added, err = archive.AppendIfNew(ctx, &model.Record{Summary: "short but longer"})
		gt.NoError(t, err)
		gt.True(t, added)

		added, err = archive.AppendIfNew(ctx, &model.Record{Summary: "short"})
		gt.NoError(t, err)
		gt.False(t, added)
	})

	t.Run("no normalization of case or spaces", func(t *testing.T) {
		archive, _ := newArchive(t)
		for _, s := range []string{"Robotics news", "robotics news", " Robotics news"} {
			added, err := archive.AppendIfNew(ctx, &model.Record{Summary: s})
			gt.NoError(t, err)
			gt.True(t, added)
		}
	})
}

func TestJSONArchiveOrder(t *testing.T) {
	ctx := context.Background()
	archive, _ := newArchive(t)

	summaries := []string{"R1 robotics", "R2 language models", "R3 sensors"}
	for _, s := range summaries {
		added, err := archive.AppendIfNew(ctx, &model.Record{Summary: s})
		gt.NoError(t, err)
		gt.True(t, added)
	}

	records, err := archive.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(3)
	for i, s := range summaries {
		gt.Equal(t, records[i].Summary, s)
	}
}

func TestJSONArchiveCorruptFile(t *testing.T) {
	testCases := map[string]string{
		"invalid json":         `{invalid json`,
		"object not array":     `{"summary": "x"}`,
		"array of strings":     `["a", "b"]`,
		"truncated":            `[{"summary": "x"`,
		"empty file":           ``,
		"array of non-objects": `[1, 2, 3]`,
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			archive, path := newArchive(t)
			gt.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			records, err := archive.Load(ctx)
			gt.NoError(t, err)
			gt.A(t, records).Length(0)

			added, err := archive.AppendIfNew(ctx, &model.Record{Summary: "fresh record"})
			gt.NoError(t, err)
			gt.True(t, added)

			stored := readArchiveFile(t, path)
			gt.A(t, stored).Length(1)
			gt.Equal(t, stored[0].Summary, "fresh record")
		})
	}
}

func TestJSONArchiveNullFile(t *testing.T) {
	ctx := context.Background()
	archive, path := newArchive(t)
	gt.NoError(t, os.WriteFile(path, []byte(`null`), 0o600))

	records, err := archive.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
}

func TestJSONArchiveMissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "news_archive.json")
	archive := repository.NewJSONArchive(path)

	records, err := archive.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)

	_, err = os.Stat(path)
	gt.True(t, os.IsNotExist(err))

	added, err := archive.AppendIfNew(ctx, &model.Record{Summary: "creates the file"})
	gt.NoError(t, err)
	gt.True(t, added)

	_, err = os.Stat(path)
	gt.NoError(t, err)
}

func TestJSONArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive, path := newArchive(t)

	inputs := []*model.Record{
		{Analysis: "構造的変化", Summary: "ロボット工学の新展開", Source: "論文 <arXiv>", Commentary: "専門性 & 個人"},
		{Analysis: "a2", Summary: "second summary", Source: "s2", Commentary: "c2"},
	}
	for _, r := range inputs {
		_, err := archive.AppendIfNew(ctx, r)
		gt.NoError(t, err)
	}

	loaded, err := archive.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(2)
	for i := range inputs {
		gt.Equal(t, *loaded[i], *inputs[i])
	}

	raw, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.S(t, string(raw)).Contains("ロボット工学の新展開")
	gt.S(t, string(raw)).Contains("論文 <arXiv>")
	gt.S(t, string(raw)).Contains("\n  {\n    \"timestamp\"")

	// appending a duplicate leaves the file byte-for-byte untouched
	_, err = archive.AppendIfNew(ctx, &model.Record{Summary: "ロボット工学の新展開"})
	gt.NoError(t, err)
	after, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(after), string(raw))
}

func TestJSONArchiveKeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	archive, path := newArchive(t)
	gt.NoError(t, os.WriteFile(path, []byte(`[{"summary": "old", "raw": "keep me"}, null]`), 0o600))

	records, err := archive.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].Summary, "old")

	added, err := archive.AppendIfNew(ctx, &model.Record{Summary: "new"})
	gt.NoError(t, err)
	gt.True(t, added)

	data, err := os.ReadFile(path)
	gt.NoError(t, err)

	var stored []map[string]any
	gt.NoError(t, json.Unmarshal(data, &stored))
	gt.A(t, stored).Length(2)
	gt.Equal(t, stored[0]["raw"], any("keep me"))
	gt.Map(t, stored[0]).NotHasKey("timestamp")
	gt.Map(t, stored[0]).NotHasKey("analysis")
	gt.Equal(t, stored[1]["summary"], any("new"))
	gt.Map(t, stored[1]).HasKey("timestamp")
	gt.S(t, string(data)).Contains("\n  {\n    \"summary\": \"old\"")
}

func TestJSONArchiveWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	gt.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	archive := repository.NewJSONArchive(filepath.Join(blocker, "news_archive.json"))
	record := &model.Record{Summary: "cannot be stored"}

	added, err := archive.AppendIfNew(ctx, record)
	gt.Error(t, err)
	gt.False(t, added)
	gt.Equal(t, record.Timestamp, "")
}

func TestJSONArchiveNilRecord(t *testing.T) {
	archive, _ := newArchive(t)
	_, err := archive.AppendIfNew(context.Background(), nil)
	gt.Error(t, err)
}

func TestJSONAnalysisCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "analysis_data.json")
	cache := repository.NewJSONAnalysisCache(path)

	data, err := cache.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(data), 0)

	gt.NoError(t, cache.Put(ctx, "a.html", []string{"p1", "p2", "p3"}))
	gt.NoError(t, cache.Put(ctx, "b.html", []string{"q1", "q2", "q3"}))
	gt.NoError(t, cache.Put(ctx, "a.html", []string{"n1", "n2", "n3"}))

	data, err = cache.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(data), 2)
	gt.Equal(t, data["a.html"], []string{"n1", "n2", "n3"})
	gt.Equal(t, data["b.html"], []string{"q1", "q2", "q3"})

	gt.Error(t, cache.Put(ctx, "", []string{"x"}))
}

func TestJSONAnalysisCacheCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "analysis_data.json")
	gt.NoError(t, os.WriteFile(path, []byte(`[1,2,3]`), 0o600))
	cache := repository.NewJSONAnalysisCache(path)

	data, err := cache.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(data), 0)

	gt.NoError(t, cache.Put(ctx, "a.html", []string{"p"}))
	data, err = cache.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, data["a.html"], []string{"p"})
}
