package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := ValidateFile(filepath.Join(t.TempDir(), "ghost.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input file not found")
	})

	t.Run("directory", func(t *testing.T) {
		err := ValidateFile(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is not a file")
	})

	t.Run("regular file", func(t *testing.T) {
		assert.NoError(t, ValidateFile(writeInput(t, "ok.txt", "hi")))
	})
}

func TestReadFile(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		path := writeInput(t, "notes.txt", "The capital of France is Paris.\n")
		text, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "The capital of France is Paris.\n", text)
	})

	t.Run("markdown passes through", func(t *testing.T) {
		path := writeInput(t, "notes.md", "# Goroutines\n\nCheap threads.\n")
		text, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "# Goroutines\n\nCheap threads.\n", text)
	})

	t.Run("blank file rejected", func(t *testing.T) {
		path := writeInput(t, "empty.txt", "   \n\t\n")
		_, err := ReadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input file is empty")
	})

	t.Run("html reduced to text", func(t *testing.T) {
		doc := `<html><head><title>Go</title><style>p{color:red}</style></head>
<body><nav>skip me</nav><h1>Concurrency</h1><p>Goroutines are cheap.</p>
<script>alert("no")</script><ul><li>channels</li><li>mutexes</li></ul></body></html>`
		path := writeInput(t, "doc.html", doc)

		text, err := ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, text, "Concurrency")
		assert.Contains(t, text, "Goroutines are cheap.")
		assert.Contains(t, text, "- channels")
		assert.NotContains(t, text, "skip me")
		assert.NotContains(t, text, "alert")
		assert.NotContains(t, text, "color:red")
	})

	t.Run("html with only chrome is empty", func(t *testing.T) {
		path := writeInput(t, "chrome.html", `<html><body><nav>menu</nav><footer>foot</footer></body></html>`)
		_, err := ReadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input file is empty")
	})
}

func TestHTMLToText(t *testing.T) {
	t.Run("blank runs collapsed", func(t *testing.T) {
		text, err := HTMLToText("<div><p>one</p><p></p><p></p><p>two</p></div>")
		require.NoError(t, err)
		assert.Equal(t, "one\n\ntwo", text)
	})

	t.Run("inline elements keep single spacing", func(t *testing.T) {
		text, err := HTMLToText("<p>Go <strong>is</strong> fun</p>")
		require.NoError(t, err)
		assert.Equal(t, "Go is fun", text)
	})

	t.Run("list items bulleted", func(t *testing.T) {
		text, err := HTMLToText("<ul><li>first</li><li>second</li></ul>")
		require.NoError(t, err)
		assert.Contains(t, text, "- first")
		assert.Contains(t, text, "- second")
	})
}
