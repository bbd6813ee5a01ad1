// Package publish turns one pipeline run into persisted output: a Markdown
// file on disk and a best-effort row in the articles table.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ai_article_writer/pipeline"
	"ai_article_writer/storage"
)

// minContentLength is the sanity floor below which a run is treated as
// failed and nothing is persisted.
const minContentLength = 100

// ErrContentTooShort marks a run whose output failed the sanity check.
var ErrContentTooShort = errors.New("generated content is empty or too short")

// Runner is the pipeline surface the publisher needs.
type Runner interface {
	Run(ctx context.Context, request string) (pipeline.Result, error)
}

// TitleRecorder appends the article record; failures are outcomes, not errors.
type TitleRecorder interface {
	Insert(ctx context.Context, title, slug string) storage.InsertResult
}

// Publisher orchestrates run, validation, and persistence.
type Publisher struct {
	pipeline Runner
	files    *storage.FileStore
	titles   TitleRecorder
	logger   *log.Logger
}

// New wires a publisher. All collaborators are required.
func New(runner Runner, files *storage.FileStore, titles TitleRecorder, logger *log.Logger) (*Publisher, error) {
	if runner == nil {
		return nil, errors.New("pipeline runner is required")
	}
	if files == nil {
		return nil, errors.New("file store is required")
	}
	if titles == nil {
		return nil, errors.New("title recorder is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{pipeline: runner, files: files, titles: titles, logger: logger}, nil
}

// Report describes one published article.
type Report struct {
	RunID     string
	Title     string
	Slug      string
	Path      string
	SizeBytes int
	DBStatus  storage.InsertStatus
}

// PublishOnce runs the pipeline once and persists the result. The file is
// the source of truth; a failed database insert is logged and never undoes
// the file save.
func (p *Publisher) PublishOnce(ctx context.Context, request string) (Report, error) {
	result, err := p.pipeline.Run(ctx, request)
	if err != nil {
		return Report{RunID: result.RunID}, err
	}

	content := strings.TrimSpace(result.Output)
	if len(content) <= minContentLength {
		return Report{RunID: result.RunID}, fmt.Errorf("%w (%d chars)", ErrContentTooShort, len(content))
	}

	title := pipeline.ExtractTitle(content)
	saved, err := p.files.Save(title, content)
	if err != nil {
		return Report{RunID: result.RunID, Title: title}, err
	}
	p.logger.Printf("[publish] run %s saved %s (%d bytes)", result.RunID, saved.Path, saved.SizeBytes)

	insert := p.titles.Insert(ctx, title, saved.Slug)
	switch insert.Status {
	case storage.InsertSuccess:
		p.logger.Printf("[publish] run %s recorded in database", result.RunID)
	case storage.InsertSkipped:
		p.logger.Printf("[publish] run %s database record skipped: %s", result.RunID, insert.Message)
	default:
		p.logger.Printf("[publish] run %s database record failed: %s", result.RunID, insert.Message)
	}

	return Report{
		RunID:     result.RunID,
		Title:     title,
		Slug:      saved.Slug,
		Path:      saved.Path,
		SizeBytes: saved.SizeBytes,
		DBStatus:  insert.Status,
	}, nil
}
