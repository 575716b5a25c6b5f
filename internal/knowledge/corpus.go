package knowledge

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"finassist/pkg/errors"
)

//go:embed corpus/*.md
var corpusFS embed.FS

// Entry is one concept of the finance corpus.
type Entry struct {
	ID       string
	Title    string
	Category string
	Content  string
}

// Corpus parses the embedded finance concepts. Each file is a category and
// every "## " heading starts an entry.
func Corpus() ([]Entry, error) {
	return parseCorpus(corpusFS, "corpus")
}

func parseCorpus(fsys fs.FS, dir string) ([]Entry, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "read corpus")
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || path.Ext(f.Name()) != ".md" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, f.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", f.Name())
		}
		category := strings.TrimSuffix(f.Name(), ".md")
		entries = append(entries, parseEntries(category, string(raw))...)
	}
	if len(entries) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "empty corpus")
	}
	return entries, nil
}

func parseEntries(category, raw string) []Entry {
	var (
		out   []Entry
		title string
		body  strings.Builder
	)
	flush := func() {
		text := strings.TrimSpace(body.String())
		if title != "" && text != "" {
			out = append(out, Entry{
				ID:       category + "/" + slug(title),
				Title:    title,
				Category: category,
				Content:  title + ": " + text,
			})
		}
		body.Reset()
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()
	return out
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
