package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slavadubrov/anything2anki/internal/schema"
)

func TestWritePreview(t *testing.T) {
	cards := schema.FlashcardSet{
		{Question: "What is a goroutine?", Answer: "A lightweight thread managed by the Go runtime."},
		{Question: "What does a channel do?", Answer: "It carries values between goroutines."},
	}

	path := filepath.Join(t.TempDir(), "deck.md")
	r := NewRenderer(Config{})
	require.NoError(t, r.WritePreview(path, cards))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "# Anki Cards Preview\n\n" +
		"Total cards: 2\n\n" +
		"---\n\n" +
		"## Card 1\n\n" +
		"**Q:** What is a goroutine?\n\n" +
		"**A:** A lightweight thread managed by the Go runtime.\n\n" +
		"---\n\n" +
		"## Card 2\n\n" +
		"**Q:** What does a channel do?\n\n" +
		"**A:** It carries values between goroutines.\n\n" +
		"---\n\n"
	assert.Equal(t, want, string(data))
}

func TestWritePreviewSkipsInvalidKeepsNumbering(t *testing.T) {
	cards := schema.FlashcardSet{
		{Question: "What is a slice?", Answer: "A view over an array."},
		{Question: "", Answer: "orphaned answer"},
		{Question: "What is a map?", Answer: "A hash table."},
	}

	path := filepath.Join(t.TempDir(), "deck.md")
	r := NewRenderer(Config{})
	require.NoError(t, r.WritePreview(path, cards))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Total cards: 3\n")
	assert.Contains(t, text, "## Card 1\n")
	assert.Contains(t, text, "## Card 3\n")
	assert.NotContains(t, text, "## Card 2\n")
	assert.NotContains(t, text, "orphaned answer")
}

func TestPreviewPath(t *testing.T) {
	tests := []struct {
		name    string
		pkgPath string
		want    string
	}{
		{"apkg extension", "deck.apkg", "deck.md"},
		{"no extension", "deck", "deck.md"},
		{"nested path", filepath.Join("out", "cards.apkg"), filepath.Join("out", "cards.md")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreviewPath(tt.pkgPath))
		})
	}
}
