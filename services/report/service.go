// Package report turns aggregated club data into files people
// actually read. Each output format is a Renderer, all enabled
// renderers run over the same immutable model, and one format failing
// never takes the others down with it.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"clubreport-backend/services/clubdata"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/report")

type Renderer interface {
	Name() string
	Ext() string
	Render(ctx context.Context, model Model) ([]byte, error)
}

type Output struct {
	Renderer string
	Path     string
}

type Service struct {
	outputDir string
	renderers []Renderer
	mailer    *Mailer
}

func NewService(outputDir string, renderers ...Renderer) Service {
	return Service{
		outputDir: outputDir,
		renderers: renderers,
	}
}

// WithMailer returns a copy of the service that emails the rendered
// reports after writing them.
func (s Service) WithMailer(mailer *Mailer) Service {
	s.mailer = mailer
	return s
}

// Generate renders and writes every enabled format. Renderer failures
// are collected and joined, the successful outputs are returned either
// way.
func (s Service) Generate(ctx context.Context, club *clubdata.Club, summary clubdata.Summary) ([]Output, error) {
	ctx, span := tracer.Start(ctx, "service:Generate")
	defer span.End()

	runID, err := random.String(12)
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	model := Build(club, summary, runID)

	err = os.MkdirAll(s.outputDir, 0755)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create output directory")
		return nil, err
	}

	outputs := make([]Output, len(s.renderers))
	failures := make([]error, len(s.renderers))

	var wg sync.WaitGroup
	for i, renderer := range s.renderers {
		i, renderer := i, renderer
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := s.renderOne(ctx, renderer, model)
			if err != nil {
				failures[i] = fmt.Errorf("render %s: %w", renderer.Name(), err)
				return
			}
			outputs[i] = Output{Renderer: renderer.Name(), Path: path}
		}()
	}
	wg.Wait()

	var written []Output
	for _, output := range outputs {
		if output.Path != "" {
			written = append(written, output)
		}
	}

	err = errors.Join(failures...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some renderers failed")
		slog.WarnContext(ctx, "some report formats failed",
			"failed", len(s.renderers)-len(written), "err", err)
	}

	if s.mailer != nil && len(written) > 0 {
		mailErr := s.mailer.Send(ctx, model, written)
		if mailErr != nil {
			err = errors.Join(err, fmt.Errorf("email reports: %w", mailErr))
		}
	}

	slog.InfoContext(ctx, "generated reports",
		"club", club.ClubName, "formats", len(written), "run_id", runID)
	return written, err
}

func (s Service) renderOne(ctx context.Context, renderer Renderer, model Model) (string, error) {
	ctx, span := tracer.Start(ctx, "service:renderOne")
	defer span.End()

	content, err := renderer.Render(ctx, model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "renderer failed")
		return "", err
	}

	path := filepath.Join(s.outputDir, Filename(model.ClubName, model.GeneratedAt, renderer.Ext()))
	err = os.WriteFile(path, content, 0644)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write report file")
		return "", err
	}
	return path, nil
}
