// Package docs serves the embedded markdown topics shown by `vibetab docs`, the web docs page
// and the editor's help overlay.
package docs

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed content/*.md
var contentFS embed.FS

// Topic is one embedded page. Title is the text of its first "# " heading.
type Topic struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	body  string
}

type index struct {
	byName map[string]Topic
	sorted []Topic
}

var loadIndex = sync.OnceValue(func() index {
	idx := index{byName: map[string]Topic{}}
	paths, _ := fs.Glob(contentFS, "content/*.md")
	for _, p := range paths {
		b, err := contentFS.ReadFile(p)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(path.Base(p), ".md")
		t := Topic{Name: name, Title: titleOf(string(b), name), body: string(b)}
		idx.byName[name] = t
		idx.sorted = append(idx.sorted, t)
	}
	sort.Slice(idx.sorted, func(i, j int) bool { return idx.sorted[i].Name < idx.sorted[j].Name })
	return idx
})

func titleOf(md, fallback string) string {
	for _, line := range strings.Split(md, "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return fallback
}

// List returns every topic ordered by name.
func List() []Topic {
	return append([]Topic(nil), loadIndex().sorted...)
}

func Topics() []string {
	list := loadIndex().sorted
	names := make([]string, 0, len(list))
	for _, t := range list {
		names = append(names, t.Name)
	}
	return names
}

// Get returns a topic's markdown. Lookup ignores case and surrounding space.
func Get(topic string) (string, bool) {
	t, ok := loadIndex().byName[strings.ToLower(strings.TrimSpace(topic))]
	return t.body, ok
}
