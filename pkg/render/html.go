package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"digital.vasic.testconsole/pkg/console"
)

// HTMLRenderer renders the web console page. Controls are plain
// forms posting to ActionPath; the page reloads itself when the
// websocket at StreamPath reports a change.
type HTMLRenderer struct {
	Title      string
	ActionPath string
	StreamPath string
}

// NewHTMLRenderer creates a renderer with the web console routes.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		Title:      "Test Console",
		ActionPath: "/api/actions/",
		StreamPath: "/ws",
	}
}

// Page renders the full page for s.
func (r *HTMLRenderer) Page(s console.ViewState) []byte {
	var buf bytes.Buffer
	r.WritePage(&buf, s)
	return buf.Bytes()
}

// WritePage writes the full page for s to w.
func (r *HTMLRenderer) WritePage(w io.Writer, s console.ViewState) {
	doc := NewDocument(s, false)

	r.writeHeader(w)
	fmt.Fprintf(w, "<h1>%s</h1>\n", html.EscapeString(r.Title))

	fmt.Fprintln(w, `<div class="controls">`)
	r.writeButton(w, "generate", "", "Generate Test Cases", s.Controls.Generate)
	r.writeButton(w, "orchestrate", "", "Orchestrate All Tests", s.Controls.Orchestrate)
	fmt.Fprintln(w, "</div>")

	fmt.Fprintf(
		w,
		"<p id=\"execution-status\">%s</p>\n",
		html.EscapeString(doc.Status),
	)

	fmt.Fprintln(w, "<h2>Test Cases</h2>")
	fmt.Fprintln(w, "<ul id=\"test-cases-list\">")
	for i, it := range doc.Items {
		r.writeItem(w, it, s.Items[i])
	}
	fmt.Fprintln(w, "</ul>")

	if doc.Summary != nil {
		fmt.Fprintln(w, "<h2>Summary</h2>")
		fmt.Fprintln(w, "<table>")
		fmt.Fprintln(w, "<tr><th>Verdict</th><th>Count</th></tr>")
		for _, k := range sortedKeys(doc.Summary.ByVerdict) {
			fmt.Fprintf(
				w,
				"<tr><td>%s</td><td>%d</td></tr>\n",
				html.EscapeString(k), doc.Summary.ByVerdict[k],
			)
		}
		fmt.Fprintln(w, "</table>")
	}

	fmt.Fprintln(w, "<h2>Reports</h2>")
	fmt.Fprintln(w, "<div id=\"report-content\">")
	for _, rep := range doc.Reports {
		writeReportHTML(w, rep)
	}
	fmt.Fprintln(w, "</div>")

	r.writeFooter(w)
}

// WriteReportBlock writes one report block fragment.
func (r *HTMLRenderer) WriteReportBlock(w io.Writer, b console.ReportBlock) {
	writeReportHTML(w, ReportView{
		ID:        b.Report.TestCaseID,
		Title:     b.Title(),
		Details:   b.Details(),
		Artifacts: b.Artifacts,
	})
}

func (r *HTMLRenderer) writeItem(w io.Writer, v ItemView, it console.Item) {
	fmt.Fprintf(w, "<li class=\"item-%s\">\n", v.Kind)
	if !it.Toggleable() {
		fmt.Fprintf(w, "%s\n</li>\n", html.EscapeString(v.Summary))
		return
	}

	fmt.Fprintln(w, `<div class="test-case-summary">`)
	fmt.Fprintf(w, "%s\n", html.EscapeString(v.Summary))
	r.writeButton(w, "toggle", fmt.Sprintf("index=%d", v.Index), v.ToggleLabel, true)
	fmt.Fprintln(w, "</div>")

	if !v.Expanded {
		fmt.Fprintln(w, "</li>")
		return
	}

	fmt.Fprintln(w, `<div class="test-case-details">`)
	for _, d := range it.Details() {
		writeDetail(w, d)
	}
	if it.HasExecuteControl() {
		r.writeButton(w, "execute", "id="+string(v.ID), "Execute This Test", v.Executable)
	}
	fmt.Fprintln(w, "</div>")
	fmt.Fprintln(w, "</li>")
}

func (r *HTMLRenderer) writeButton(w io.Writer, action, query, label string, enabled bool) {
	target := r.ActionPath + action
	if query != "" {
		target += "?" + query
	}
	disabled := ""
	if !enabled {
		disabled = " disabled"
	}
	fmt.Fprintf(
		w,
		"<form method=\"post\" action=\"%s\"><button type=\"submit\"%s>%s</button></form>\n",
		html.EscapeString(target), disabled, html.EscapeString(label),
	)
}

func writeDetail(w io.Writer, d console.Detail) {
	switch d.Label {
	case "Screenshot":
		fmt.Fprintf(
			w,
			"<p><strong>Screenshot:</strong> <img src=\"%s\" alt=\"Screenshot\" width=\"200\"></p>\n",
			html.EscapeString(d.Value),
		)
	case "Log File":
		fmt.Fprintf(
			w,
			"<p><strong>Log File:</strong> <a href=\"%s\" target=\"_blank\">Download Log</a></p>\n",
			html.EscapeString(d.Value),
		)
	default:
		fmt.Fprintf(
			w,
			"<p><strong>%s:</strong> %s</p>\n",
			html.EscapeString(d.Label), html.EscapeString(d.Value),
		)
	}
}

func writeReportHTML(w io.Writer, r ReportView) {
	fmt.Fprintln(w, `<div class="report">`)
	fmt.Fprintf(w, "<h3>%s</h3>\n", html.EscapeString(r.Title))
	for _, d := range r.Details {
		writeDetail(w, d)
	}
	fmt.Fprintln(w, "<h4>Artifacts:</h4>")
	fmt.Fprintf(
		w,
		"<p><strong>Screenshot:</strong> <img src=\"%s\" alt=\"Screenshot\" width=\"300\"></p>\n",
		html.EscapeString(r.Artifacts.Screenshot),
	)
	fmt.Fprintf(
		w,
		"<p><strong>Log:</strong> <a href=\"%s\" target=\"_blank\">Download Log</a></p>\n",
		html.EscapeString(r.Artifacts.Log),
	)
	fmt.Fprintln(w, "<hr>")
	fmt.Fprintln(w, "</div>")
}

func (r *HTMLRenderer) writeHeader(w io.Writer) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
body {
  font-family: -apple-system, BlinkMacSystemFont,
    "Segoe UI", Roboto, sans-serif;
  max-width: 960px;
  margin: 0 auto;
  padding: 20px;
  color: #333;
  background: #f9f9f9;
}
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2c3e50; margin-top: 30px; }
form { display: inline; }
li { margin: 6px 0; }
.test-case-details { margin-left: 20px; }
.item-placeholder { color: #7f8c8d; font-style: italic; }
table { border-collapse: collapse; background: #fff; }
th, td { border: 1px solid #ddd; padding: 6px 12px; text-align: left; }
th { background: #3498db; color: #fff; }
</style>
</head>
<body>
`, html.EscapeString(r.Title))
}

func (r *HTMLRenderer) writeFooter(w io.Writer) {
	if r.StreamPath != "" {
		fmt.Fprintf(w, `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + %q);
  ws.onmessage = function () { location.reload(); };
})();
</script>
`, strings.TrimSpace(r.StreamPath))
	}
	fmt.Fprintln(w, "</body>\n</html>")
}
