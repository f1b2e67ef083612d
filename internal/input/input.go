// Package input loads and validates source documents for card generation.
// HTML inputs are reduced to plain text before they reach the model; every
// other extension is treated as UTF-8 text.
package input

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Pre-compile cleanup patterns to avoid recompilation overhead
var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// ValidateFile checks that path names an existing regular file.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", path)
		}
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is not a file: %s", path)
	}
	return nil
}

// ReadFile loads the source text for a run.
func ReadFile(path string) (string, error) {
	if err := ValidateFile(path); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	text := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		text, err = HTMLToText(text)
		if err != nil {
			return "", fmt.Errorf("failed to parse HTML input: %w", err)
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("input file is empty: %s", path)
	}

	return text, nil
}

// HTMLToText reduces an HTML document to readable plain text, dropping
// script/style/navigation chrome.
func HTMLToText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	extractText(doc, &sb, 0)

	return cleanText(sb.String()), nil
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 50 {
		return // Prevent excessive recursion
	}

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header":
			return // Skip these elements
		case "title", "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "section", "article", "blockquote", "pre", "table":
			sb.WriteString("\n\n")
		case "br", "tr":
			sb.WriteString("\n")
		case "li":
			sb.WriteString("\n- ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "title", "h1", "h2", "h3", "h4", "h5", "h6", "p", "blockquote", "pre":
			sb.WriteString("\n\n")
		}
	}
}

// cleanText removes excessive whitespace left behind by the node walk.
func cleanText(s string) string {
	// Replace multiple newlines with max 2
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")

	// Replace multiple spaces with single space
	s = multiSpacePattern.ReplaceAllString(s, " ")

	// Trim each line
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	// Collapse runs reintroduced by line trimming
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
