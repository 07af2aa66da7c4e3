package journal

import (
	"fmt"
	"io"
	"text/template"
	"time"
)

// Run mirrors the runs table: one rebuild over a lookback window.
type Run struct {
	RunID   string
	Created time.Time
	User    string

	Start  time.Time
	End    time.Time
	Assets []string

	Fills  int
	Rows   int
	Closes int
	Wins   int
	Losses int

	NetPnL  float64 // sum of row PnL, fees already taken out
	Fees    float64 // sum of row fees
	Funding float64 // funding attributed to rows
}

// WinRate is wins over closes, zero when nothing closed.
func (r Run) WinRate() float64 {
	if r.Closes == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Closes)
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders the run summary as an Org-mode section.
func (r Run) WriteOrg(w io.Writer) error {
	if err := runOrg.Execute(w, r); err != nil {
		return fmt.Errorf("render run %s: %w", r.RunID, err)
	}
	return nil
}

const RunOrgTemplate = `* REBUILD: {{if .User}}{{.User}}{{else}}(user?){{end}} {{.Start.Format "2006-01-02"}}..{{.End.Format "2006-01-02"}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:USER:        {{.User}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:ASSETS:      {{range $i, $a := .Assets}}{{if $i}} {{end}}{{$a}}{{end}}
:FILLS:       {{.Fills}}
:ROWS:        {{.Rows}}
:NET_PNL:     {{printf "%.2f" .NetPnL}}
:FEES:        {{printf "%.2f" .Fees}}
:FUNDING:     {{printf "%.2f" .Funding}}
:CLOSES:      {{.Closes}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:   *{{printf "%.2f" .NetPnL}}*
- Fees:      *{{printf "%.2f" .Fees}}*
- Win Rate:  *{{printf "%.2f" (mul100 .WinRate)}}%*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Closes  | {{.Closes}} |
`
