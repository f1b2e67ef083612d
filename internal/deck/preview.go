package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/slavadubrov/anything2anki/internal/schema"
)

// PreviewPath derives the markdown preview path from a package path by
// swapping the extension for .md.
func PreviewPath(packagePath string) string {
	return strings.TrimSuffix(packagePath, filepath.Ext(packagePath)) + ".md"
}

// WritePreview writes a human-readable markdown rendering of the card set.
// The header counts every card handed in; invalid cards are skipped below it
// but keep their original numbering so the preview can be checked against the
// raw model output.
func (r *Renderer) WritePreview(path string, cards schema.FlashcardSet) error {
	var sb strings.Builder
	sb.WriteString("# Anki Cards Preview\n\n")
	fmt.Fprintf(&sb, "Total cards: %d\n\n", len(cards))
	sb.WriteString("---\n\n")

	for i, card := range cards {
		if !card.Valid() {
			continue
		}
		fmt.Fprintf(&sb, "## Card %d\n\n", i+1)
		fmt.Fprintf(&sb, "**Q:** %s\n\n", card.Question)
		fmt.Fprintf(&sb, "**A:** %s\n\n", card.Answer)
		sb.WriteString("---\n\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}

	r.logger.Debug("preview written", zap.String("path", path))
	return nil
}
