package web

import (
	"html/template"
	"net/http"

	appLog "jcal/internal/log"
)

var pageTmpl = template.Must(template.New("calendar").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Visible.Month}}</title>
<style>
body { font-family: sans-serif; margin: 24px; }
h1 { font-size: 28px; margin: 0 0 12px; }
table { border-collapse: collapse; width: 100%; table-layout: fixed; }
th, td { border: 1px solid #000; padding: 8px; text-align: right; vertical-align: top; height: 48px; }
th { height: auto; text-align: center; }
td.out { color: #999; }
td.selected { background: #000; color: #fff; }
td .events { display: block; font-size: 12px; color: #c00; }
</style>
</head>
<body>
<div id="calendar" data-ready="true" data-mode="{{.Mode}}" data-page="{{.Page}}">
<h1>{{.Visible.Month}}</h1>
<table>
<thead><tr>{{range .Weekdays}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Visible.Weeks}}
<tr>{{range .}}<td class="{{if .OutDay}}out{{end}}{{if .Selected}} selected{{end}}" data-date="{{.Date}}">{{.Day}}{{if .Events}}<span class="events">{{.Events}}</span>{{end}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</div>
</body>
</html>
`))

// handleCalendarPage renders the visible page as HTML. The root element carries
// data-ready="true" for screenshot capture.
func (s *Server) handleCalendarPage(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := s.render(false)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, resp); err != nil {
		appLog.Error("failed to render calendar page", err)
	}
}
