package bulletin

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/muesli/reflow/wordwrap"

	"github.com/bastionworks/garrison/internal/store"
	"github.com/bastionworks/garrison/internal/world"
)

const DefaultWidth = 80

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Report is the data handed to the dispatch template.
type Report struct {
	PlayerID string
	Rank     string
	Day      int
	Funds    int
	Morale   int
	Active   int
	Entries  []Entry
}

// Entry is one bulletin line, newest first.
type Entry struct {
	Day  int
	Kind string
	Text string
}

var dispatchTemplate = template.Must(
	template.New("dispatch").Funcs(sprig.TxtFuncMap()).Parse(dispatchText))

const dispatchText = `GARRISON DISPATCH - DAY {{ .Day }}
{{ upper .Rank }} {{ .PlayerID }}
Funds {{ .Funds }} | Morale {{ .Morale }} | Active troopers {{ .Active }}
{{- if .Entries }}
{{- range .Entries }}
Day {{ printf "%3d" .Day }} [{{ .Kind }}] {{ .Text }}
{{- end }}
{{- else }}
Nothing to report.
{{- end }}
`

// BuildReport assembles the dispatch data from a caught-up world and its
// recent bulletin lines.
func BuildReport(w *world.World, bulletins []store.Bulletin) Report {
	entries := make([]Entry, 0, len(bulletins))
	for _, b := range bulletins {
		entries = append(entries, Entry{Day: b.Day, Kind: b.Kind, Text: b.Text})
	}
	return Report{
		PlayerID: w.PlayerID,
		Rank:     w.Rank,
		Day:      w.CurrentDay,
		Funds:    w.Funds,
		Morale:   w.Morale,
		Active:   w.CountByStatus(world.StatusActive),
		Entries:  entries,
	}
}

// RenderDispatch renders the plaintext daily dispatch, wrapped for an
// 80-column read.
func RenderDispatch(r Report) (string, error) {
	var buf bytes.Buffer
	if err := dispatchTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("executing dispatch template: %w", err)
	}
	return Wrap(buf.String()), nil
}
