package curate

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/adapter"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/repository"
	"github.com/mochisura/marketer/pkg/utils/logging"
	"google.golang.org/genai"
)

// DefaultHistoryWindow is how many recent records are listed as topics to avoid
const DefaultHistoryWindow = 20

// UseCase curates AI news into the archive
type UseCase struct {
	gemini        adapter.Gemini
	archive       repository.Archive
	model         string
	baseQuery     string
	historyWindow int
	prefixLength  int
	search        bool
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithModel sets the generative model
func WithModel(model string) Option {
	return func(uc *UseCase) {
		uc.model = model
	}
}

// WithBaseQuery replaces the default news search scope
func WithBaseQuery(query string) Option {
	return func(uc *UseCase) {
		if query != "" {
			uc.baseQuery = query
		}
	}
}

// WithHistoryWindow sets how many recent records are shown to the model
func WithHistoryWindow(n int) Option {
	return func(uc *UseCase) {
		uc.historyWindow = n
	}
}

// WithPrefixLength sets the length of the summary prefix shown per known topic
func WithPrefixLength(n int) Option {
	return func(uc *UseCase) {
		uc.prefixLength = n
	}
}

// WithSearchGrounding enables the Google Search tool on curation requests
func WithSearchGrounding(enabled bool) Option {
	return func(uc *UseCase) {
		uc.search = enabled
	}
}

// New creates a new curate UseCase instance
func New(gemini adapter.Gemini, archive repository.Archive, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini:        gemini,
		archive:       archive,
		model:         adapter.DefaultModel,
		baseQuery:     DefaultBaseQuery,
		historyWindow: DefaultHistoryWindow,
		prefixLength:  model.DefaultPrefixLength,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Curate asks the model for one new piece of AI news, parses the tagged
// sections and archives the result when it has a summary. The generation
// call is made once; failures are returned as is.
func (u *UseCase) Curate(ctx context.Context, topic string) (*model.Curation, error) {
	records, err := u.archive.ListAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load archive")
	}

	history := recentKeys(records, u.historyWindow, u.prefixLength)
	topic = strings.TrimSpace(topic)
	query := buildQuery(topic, u.baseQuery)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildPrompt(topic, history)),
			genai.NewPartFromText(searchInstruction(query)),
		}, genai.RoleUser),
	}

	var config *genai.GenerateContentConfig
	if u.search {
		config = &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		}
	}

	logging.From(ctx).Info("curating news",
		"topic", topic,
		"known_topics", len(history),
		"model", u.model)

	resp, err := u.gemini.GenerateContent(ctx, u.model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate curation", goerr.V("topic", topic))
	}

	curation := parseCuration(adapter.ResponseText(resp))
	curation.ModelUsed = u.model

	if curation.Summary == "" {
		logging.From(ctx).Warn("curation has no summary, not archived",
			"structured", curation.Structured)
		return curation, nil
	}

	archived, err := u.archive.AppendIfNew(ctx, curation.Record())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to archive curation")
	}
	curation.Archived = archived

	return curation, nil
}

// Save archives a record submitted by a presenter. It returns false when an
// equivalent record already exists.
func (u *UseCase) Save(ctx context.Context, record *model.Record) (bool, error) {
	if record == nil {
		return false, goerr.New("record is nil")
	}
	if err := record.Validate(); err != nil {
		return false, err
	}

	added, err := u.archive.AppendIfNew(ctx, record)
	if err != nil {
		return false, goerr.Wrap(err, "failed to save record",
			goerr.V("summary", model.DedupKey(record.Summary, 20)))
	}
	return added, nil
}

// History returns every archived record
func (u *UseCase) History(ctx context.Context) ([]*model.Record, error) {
	records, err := u.archive.ListAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list archive")
	}
	return records, nil
}

// recentKeys returns dedup keys of the last n records, oldest first
func recentKeys(records []*model.Record, n, prefixLength int) []string {
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}

	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, model.DedupKey(r.Summary, prefixLength))
	}
	return keys
}
