// Package changelog renders per-package release fragments and splices them
// into the repository changelog file.
package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/monodeploy/cli/internal/analyze"
	"github.com/monodeploy/cli/internal/core"
)

// Sentinel delimits the insertion point in the changelog file. New content
// lands immediately after it; everything around it is preserved.
const Sentinel = "<!-- MONODEPLOY:BELOW -->"

// DefaultHeader opens a changelog file created from scratch.
const DefaultHeader = "# Changelog\n\n" + Sentinel + "\n"

// sections maps conventional-commit types to changelog section headings in
// render order.
var sections = []struct {
	types   []string
	heading string
}{
	{[]string{"feat"}, "Features"},
	{[]string{"fix"}, "Bug Fixes"},
	{[]string{"perf"}, "Performance"},
}

// RenderFragment renders one package's changelog fragment. Explicit
// strategies group their driving commits by type; propagated strategies get
// a stub line that does not re-list upstream commits.
func RenderFragment(name, version string, date time.Time, strat core.VersionStrategy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s@%s (%s)\n\n", name, version, date.Format("2006-01-02"))

	if strat.Origin == core.OriginPropagated {
		b.WriteString("* dependency ranges updated for upstream releases\n")
		return b.String()
	}

	var breaking []string
	byType := make(map[string][]string)
	for _, msg := range strat.Commits {
		header, _, _ := strings.Cut(msg, "\n")
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		if strings.Contains(msg, "BREAKING CHANGE") || strings.Contains(header, "!:") {
			breaking = append(breaking, header)
		}
		if t := analyze.HeaderType(header); t != "" {
			byType[t] = append(byType[t], header)
		}
	}

	for _, section := range sections {
		var entries []string
		for _, typ := range section.types {
			entries = append(entries, byType[typ]...)
		}
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", section.heading)
		for _, entry := range entries {
			fmt.Fprintf(&b, "* %s\n", entry)
		}
		b.WriteString("\n")
	}
	if len(breaking) > 0 {
		b.WriteString("### BREAKING CHANGES\n\n")
		for _, entry := range breaking {
			fmt.Fprintf(&b, "* %s\n", entry)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Splice inserts content immediately after the sentinel in the changelog
// file, creating the file with a default header when it does not exist.
func Splice(path, content string) error {
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		existing = []byte(DefaultHeader)
	} else if err != nil {
		return fmt.Errorf("reading changelog %s: %w", path, err)
	}

	text := string(existing)
	idx := strings.Index(text, Sentinel)
	if idx < 0 {
		return fmt.Errorf("changelog %s has no sentinel %q", path, Sentinel)
	}
	insertAt := idx + len(Sentinel)
	// Skip the sentinel's own newline so content starts on a fresh line.
	if insertAt < len(text) && text[insertAt] == '\n' {
		insertAt++
	}

	var b strings.Builder
	b.WriteString(text[:insertAt])
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(content, "\n"))
	b.WriteString("\n")
	b.WriteString(text[insertAt:])

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating changelog directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing changelog %s: %w", path, err)
	}
	return nil
}
