package httpserver

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<title>Call Transcript Analyzer</title>
<h2>Call Transcript Analyzer</h2>
<form method=post action="/analyze">
  <textarea name=transcript rows=10 cols=80 placeholder="Paste transcript here..."></textarea><br>
  <button type=submit>Analyze</button>
</form>
{{- with .Result}}
  <h3>Result</h3>
  <b>Transcript:</b>
  <pre>{{.Transcript}}</pre>
  <b>Summary:</b> {{.Summary}}<br>
  <b>Sentiment:</b> {{.Sentiment}}<br>
  <p>Saved to <code>{{$.CSVFile}}</code> at {{.AnalyzedAt}}</p>
{{- end}}
`))

type indexView struct {
	Result  *pageResult
	CSVFile string
}

type pageResult struct {
	Transcript string
	Summary    string
	Sentiment  string
	AnalyzedAt string
}
