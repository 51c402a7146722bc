package reportgen

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"sponsorly/models"
)

// CreatorsPerPage is how many creator rows fit on one printed page.
const CreatorsPerPage = 15

const reportTemplate = `# {{.Campaign.Name}}

**Campaign performance report** | {{.SponsorName}} | generated {{date .GeneratedAt}}

| Status | Period | Creators |
|---|---|---:|
| {{.Campaign.Status}} | {{period .Campaign.StartDate .Campaign.EndDate}} | {{len .Creators}} |

## Summary

| Metric | Value |
|---|---:|
| Budget | {{money .Campaign.Budget}} |
| Spend | {{money .Campaign.Spend}} |
| Budget used | {{pct .BudgetUsed}} |
| Revenue | {{money .Campaign.Revenue}} |
| Return on investment | {{pct .Campaign.ROIPercent}} |
| Return on objective | {{pct .Campaign.ROOPercent}} |
| Impressions | {{count .Campaign.Metrics.Impressions}} |
| Clicks | {{count .Campaign.Metrics.Clicks}} |
| Click-through rate | {{rate .Campaign.CTRRate}} |
| Conversions | {{count .Campaign.Metrics.Conversions}} |
| Conversion rate | {{rate .Campaign.ConvRate}} |
| Engagements | {{count .Campaign.Metrics.Engagements}} |

{{footer 1}}

---

## Objectives
{{if .Campaign.Objectives}}
| Objective | Target | Achieved | Progress | Weight |
|---|---:|---:|---:|---:|
{{range .Campaign.Objectives}}| {{.Name}} | {{num .Target}} | {{num .Achieved}} | {{progress .}} | {{weight .Weight}} |
{{end}}{{else}}
_No objectives were set for this campaign._
{{end}}
{{footer 2}}
{{range $i, $rows := .CreatorPages}}
---

## Creator breakdown{{if $i}} (continued){{end}}
{{if $rows}}
| Creator | Handle | Followers | Engagement | Rate per post |
|---|---|---:|---:|---:|
{{range $rows}}| {{.DisplayName}} | @{{.Handle}} | {{count .Followers}} | {{rate .EngagementRate}} | {{money .RatePerPost}} |
{{end}}{{else}}
_No creators are assigned to this campaign._
{{end}}
{{footer (add $i 3)}}
{{end}}`

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"footer":   func(int) string { return "" },
	"add":      func(a, b int) int { return a + b },
	"date":     func(t time.Time) string { return t.UTC().Format("2 Jan 2006") },
	"period":   period,
	"money":    money,
	"pct":      func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "%" },
	"rate":     func(v float64) string { return strconv.FormatFloat(v*100, 'f', 2, 64) + "%" },
	"count":    func(v int64) string { return group(strconv.FormatInt(v, 10)) },
	"num":      func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"progress": progress,
	"weight": func(w float64) string {
		if w <= 0 {
			return "1"
		}
		return strconv.FormatFloat(w, 'f', -1, 64)
	},
}).Parse(reportTemplate))

type reportView struct {
	models.ReportData
	BudgetUsed   float64
	CreatorPages [][]models.CreatorPerformance
}

// Render produces the print-style Markdown document and its page count.
func Render(data models.ReportData) (string, int, error) {
	view := reportView{ReportData: data, CreatorPages: paginate(data.Creators, CreatorsPerPage)}
	if data.Campaign.Budget > 0 {
		view.BudgetUsed = math.Round(data.Campaign.Spend/data.Campaign.Budget*10000) / 100
	}
	pages := 2 + len(view.CreatorPages)

	t, err := tmpl.Clone()
	if err != nil {
		return "", 0, err
	}
	t.Funcs(template.FuncMap{"footer": func(page int) string {
		return fmt.Sprintf("_Sponsorly | %s | Page %d of %d_", data.Campaign.Name, page, pages)
	}})

	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", 0, fmt.Errorf("failed to render report: %w", err)
	}
	return strings.TrimSpace(buf.String()) + "\n", pages, nil
}

// paginate splits rows into pages; an empty list still yields one page.
func paginate(rows []models.CreatorPerformance, size int) [][]models.CreatorPerformance {
	if len(rows) == 0 {
		return [][]models.CreatorPerformance{nil}
	}
	var pages [][]models.CreatorPerformance
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		pages = append(pages, rows[start:end])
	}
	return pages
}

func period(start, end time.Time) string {
	switch {
	case start.IsZero() && end.IsZero():
		return "not scheduled"
	case end.IsZero():
		return "from " + start.UTC().Format("2 Jan 2006")
	case start.IsZero():
		return "until " + end.UTC().Format("2 Jan 2006")
	}
	return start.UTC().Format("2 Jan 2006") + " to " + end.UTC().Format("2 Jan 2006")
}

func progress(o models.Objective) string {
	if o.Target <= 0 {
		return "n/a"
	}
	return strconv.FormatFloat(math.Round(math.Min(o.Achieved/o.Target, 1)*10000)/100, 'f', 2, 64) + "%"
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	whole := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(whole, '.')
	return sign + "$" + group(whole[:dot]) + whole[dot:]
}

// group inserts thousands separators into a string of digits.
func group(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
