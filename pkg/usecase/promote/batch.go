package promote

import (
	"context"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

// BatchReport summarizes an AnalyzeAll run
type BatchReport struct {
	Total        int
	Succeeded    int
	Unstructured int
	Failed       map[string]error
}

// AnalyzeAll analyzes every HTML article in dir. A failing article is logged
// and recorded in the report; the batch continues with the next one.
func (u *UseCase) AnalyzeAll(ctx context.Context, dir string) (*BatchReport, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob articles", goerr.V("dir", dir))
	}

	report := &BatchReport{
		Total:  len(files),
		Failed: map[string]error{},
	}
	logging.From(ctx).Info("batch analysis started", "dir", dir, "articles", len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, goerr.Wrap(err, "batch analysis interrupted")
		}

		name := filepath.Base(file)
		promo, err := u.Analyze(ctx, file)
		if err != nil {
			logging.From(ctx).Error("analysis failed", "article", name, "error", err)
			report.Failed[name] = err
			continue
		}

		if promo.Structured {
			report.Succeeded++
		} else {
			report.Unstructured++
		}
	}

	logging.From(ctx).Info("batch analysis finished",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"unstructured", report.Unstructured,
		"failed", len(report.Failed))

	return report, nil
}
