// Package deck renders validated flashcard sets into Anki packages. An .apkg
// file is a zip archive holding a schema-11 collection database plus a media
// manifest; alongside it the package writes a markdown preview so the cards
// can be reviewed without opening Anki.
package deck

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/slavadubrov/anything2anki/internal/schema"
)

// ErrNoValidCards is returned when rendering is asked to produce a deck from
// a set with no valid card in it.
var ErrNoValidCards = errors.New("no valid flashcards")

// Config controls deck rendering.
type Config struct {
	// Name is the deck name shown in Anki. Defaults to DefaultDeckName.
	Name   string
	Logger *zap.Logger
}

// Renderer writes flashcard sets to disk as packages and previews.
type Renderer struct {
	name   string
	logger *zap.Logger
}

// NewRenderer creates a renderer from cfg, filling in defaults for unset
// fields.
func NewRenderer(cfg Config) *Renderer {
	if cfg.Name == "" {
		cfg.Name = DefaultDeckName
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Renderer{name: cfg.Name, logger: cfg.Logger}
}

// RenderResult reports what Render wrote.
type RenderResult struct {
	// PackagePath is the .apkg location, empty in preview-only mode.
	PackagePath string
	// PreviewPath is the markdown preview location.
	PreviewPath string
	// CardCount is the number of valid cards rendered.
	CardCount int
}

// Render writes the .apkg package and its markdown preview for the card set.
// The two files are independent, so they are written concurrently. With
// previewOnly set the package build is skipped entirely and only the preview
// is written.
func (r *Renderer) Render(ctx context.Context, cards schema.FlashcardSet, packagePath string, previewOnly bool) (RenderResult, error) {
	valid := len(validCards(cards))
	if valid == 0 {
		return RenderResult{}, ErrNoValidCards
	}

	result := RenderResult{
		PreviewPath: PreviewPath(packagePath),
		CardCount:   valid,
	}

	if previewOnly {
		if err := r.WritePreview(result.PreviewPath, cards); err != nil {
			return RenderResult{}, err
		}
		r.logger.Info("preview rendered",
			zap.String("preview", result.PreviewPath),
			zap.Int("cards", valid))
		return result, nil
	}

	result.PackagePath = packagePath

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.WritePackage(gctx, packagePath, cards)
	})
	g.Go(func() error {
		return r.WritePreview(result.PreviewPath, cards)
	})
	if err := g.Wait(); err != nil {
		return RenderResult{}, err
	}

	r.logger.Info("deck rendered",
		zap.String("package", result.PackagePath),
		zap.String("preview", result.PreviewPath),
		zap.Int("cards", valid))
	return result, nil
}
