package docs

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	rendererMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle can block on terminal queries, so the style
	// is picked from the environment instead.
	renderers = map[string]*glamour.TermRenderer{}
)

// Render formats markdown for a terminal of the given width. On any renderer error the
// markdown is returned unchanged.
func Render(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	style := Style()
	key := style + ":" + strconv.Itoa(width)

	rendererMu.Lock()
	defer rendererMu.Unlock()
	r := renderers[key]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		renderers[key] = r
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Style picks the glamour style: VIBETAB_MD_STYLE (dark|light|notty), then "notty" when
// NO_COLOR is set, then dark.
func Style() string {
	switch s := strings.ToLower(strings.TrimSpace(os.Getenv("VIBETAB_MD_STYLE"))); s {
	case "dark", "light", "notty":
		return s
	}
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return "notty"
	}
	return "dark"
}
