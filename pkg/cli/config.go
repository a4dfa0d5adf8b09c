package cli

import (
	"context"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/adapter"
	"github.com/mochisura/marketer/pkg/repository"
	"github.com/mochisura/marketer/pkg/usecase/curate"
	"github.com/mochisura/marketer/pkg/usecase/promote"
	"github.com/urfave/cli/v3"
)

const (
	archiveBackendFile      = "file"
	archiveBackendFirestore = "firestore"
)

// config holds configuration values
type config struct {
	// Gemini
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	model          string

	// Archive
	archiveBackend      string
	archivePath         string
	firestoreProject    string
	firestoreDatabase   string
	firestoreCollection string

	// Articles
	articlesDir  string
	analysisPath string
}

// geminiFlags returns flags for Gemini configuration with destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "google-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GOOGLE_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID to use Gemini on Vertex AI instead of an API key",
			Sources:     cli.EnvVars("MARKETER_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MARKETER_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Generative model name",
			Sources:     cli.EnvVars("MARKETER_MODEL"),
			Destination: &cfg.model,
		},
	}
}

// archiveFlags returns flags for the news archive backend with destination config
func archiveFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-backend",
			Usage:       "Archive backend (file or firestore)",
			Value:       archiveBackendFile,
			Sources:     cli.EnvVars("MARKETER_ARCHIVE_BACKEND"),
			Destination: &cfg.archiveBackend,
		},
		&cli.StringFlag{
			Name:        "archive-path",
			Usage:       "Path of the JSON archive file",
			Sources:     cli.EnvVars("MARKETER_ARCHIVE_PATH"),
			Destination: &cfg.archivePath,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the Firestore archive",
			Sources:     cli.EnvVars("MARKETER_FIRESTORE_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("MARKETER_FIRESTORE_DATABASE"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection of archived records",
			Value:       repository.DefaultCollection,
			Sources:     cli.EnvVars("MARKETER_FIRESTORE_COLLECTION"),
			Destination: &cfg.firestoreCollection,
		},
	}
}

// articleFlags returns flags for blog articles and the analysis cache
func articleFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "articles-dir",
			Usage:       "Directory of HTML blog articles",
			Sources:     cli.EnvVars("MARKETER_ARTICLES_DIR"),
			Destination: &cfg.articlesDir,
		},
		&cli.StringFlag{
			Name:        "analysis-path",
			Usage:       "Path of the analysis cache JSON file",
			Sources:     cli.EnvVars("MARKETER_ANALYSIS_PATH"),
			Destination: &cfg.analysisPath,
		},
	}
}

// newGemini creates a Gemini client from an API key, or from Vertex AI settings
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	switch {
	case cfg.geminiAPIKey != "":
		return adapter.NewGemini(ctx, cfg.geminiAPIKey)
	case cfg.geminiProject != "":
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		return adapter.NewVertexGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
	default:
		return nil, goerr.New("google-api-key or gemini-project is required")
	}
}

// newArchive creates the configured archive backend. The returned function
// releases the backend.
func (cfg *config) newArchive(ctx context.Context) (repository.Archive, func(), error) {
	s := settingsFrom(ctx)

	switch cfg.archiveBackend {
	case "", archiveBackendFile:
		path := pick(cfg.archivePath, s.ArchivePath, repository.DefaultArchiveFile)
		var opts []repository.JSONArchiveOption
		if s.PrefixLength > 0 {
			opts = append(opts, repository.WithPrefixLength(s.PrefixLength))
		}
		return repository.NewJSONArchive(path, opts...), func() {}, nil

	case archiveBackendFirestore:
		if cfg.firestoreProject == "" {
			return nil, nil, goerr.New("firestore-project is required")
		}
		opts := []repository.FirestoreOption{repository.WithCollection(cfg.firestoreCollection)}
		if s.PrefixLength > 0 {
			opts = append(opts, repository.WithFirestorePrefixLength(s.PrefixLength))
		}
		archive, err := repository.New(ctx, cfg.firestoreProject, cfg.firestoreDatabase, opts...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create firestore archive")
		}
		return archive, func() { _ = archive.Close() }, nil

	default:
		return nil, nil, goerr.New("unsupported archive backend",
			goerr.V("backend", cfg.archiveBackend),
			goerr.V("supported", []string{archiveBackendFile, archiveBackendFirestore}))
	}
}

func (cfg *config) articlesDirectory(ctx context.Context) string {
	return pick(cfg.articlesDir, settingsFrom(ctx).ArticlesDir, filepath.Join("blog", "articles"))
}

func (cfg *config) newAnalysisCache(ctx context.Context) repository.AnalysisCache {
	return repository.NewJSONAnalysisCache(pick(cfg.analysisPath, settingsFrom(ctx).AnalysisPath, repository.DefaultAnalysisFile))
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context, bucketName string) (adapter.Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, bucketName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

func (cfg *config) promoteOptions(ctx context.Context) []promote.Option {
	s := settingsFrom(ctx)
	switch {
	case cfg.model != "":
		return []promote.Option{promote.WithModels(cfg.model)}
	case len(s.Models) > 0:
		return []promote.Option{promote.WithModels(s.Models...)}
	}
	return nil
}

func (cfg *config) curateOptions(ctx context.Context) []curate.Option {
	s := settingsFrom(ctx)
	opts := []curate.Option{
		curate.WithBaseQuery(s.BaseQuery),
		curate.WithSearchGrounding(s.SearchGrounding == nil || *s.SearchGrounding),
	}
	if m := pick(cfg.model, first(s.Models)); m != "" {
		opts = append(opts, curate.WithModel(m))
	}
	if s.HistoryWindow > 0 {
		opts = append(opts, curate.WithHistoryWindow(s.HistoryWindow))
	}
	if s.PrefixLength > 0 {
		opts = append(opts, curate.WithPrefixLength(s.PrefixLength))
	}
	return opts
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
