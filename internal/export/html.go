package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	dErrors "govgate/pkg/domain-errors"
)

// The rendered document embeds every hash twice: once in machine-readable
// meta tags an external verifier can extract without parsing prose, and once
// in the visible table for humans.
var bundleTemplate = template.Must(template.New("bundle").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Compliance Export Bundle</title>
<meta name="bundle-format-version" content="{{.FormatVersion}}">
<meta name="bundle-root-hash" content="{{.RootHash}}">
{{- range .Sections}}
<meta name="bundle-section-hash" data-section="{{.Name}}" content="{{.Hash}}">
{{- end}}
<style>
body { font-family: monospace; margin: 2rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.4rem 0.8rem; text-align: left; }
pre { background: #f4f4f4; padding: 0.8rem; overflow-x: auto; }
</style>
</head>
<body>
<h1>Compliance Export Bundle</h1>
<p>Root hash: <code>{{.RootHash}}</code></p>
<h2>Section hashes</h2>
<table>
<tr><th>Section</th><th>SHA-256</th></tr>
{{- range .Sections}}
<tr><td>{{.Name}}</td><td><code>{{.Hash}}</code></td></tr>
{{- end}}
</table>
<h2>Sections</h2>
{{- range .Sections}}
<h3 id="section-{{.Name}}">{{.Name}}</h3>
<pre>{{.Body}}</pre>
{{- end}}
</body>
</html>
`))

type htmlSection struct {
	Name string
	Hash string
	Body string
}

type htmlBundle struct {
	FormatVersion string
	RootHash      string
	Sections      []htmlSection
}

// ToHTML renders the bundle as a self-contained document. Sections appear in
// the contractual hashing order.
func (b *Bundle) ToHTML() ([]byte, error) {
	view := htmlBundle{FormatVersion: BundleFormatVersion, RootHash: b.RootHash}
	for _, name := range sectionOrder {
		body, err := json.MarshalIndent(b.Sections[name], "", "  ")
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("render section %s", name))
		}
		view.Sections = append(view.Sections, htmlSection{
			Name: name,
			Hash: b.Hashes[name],
			Body: string(body),
		})
	}

	var buf bytes.Buffer
	if err := bundleTemplate.Execute(&buf, view); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "render bundle html")
	}
	return buf.Bytes(), nil
}
