package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/goccy/go-json"

	"webplots/internal/models"
)

// PlotlyCDN is the script the standalone page loads plotly.js from.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <script src="{{.CDN}}"></script>
</head>
<body>
    <div id="myDiv" style="width: 100%; height: 100vh;"></div>
    <script>
        var data = {{.Data}};
        var layout = {{.Layout}};
        Plotly.newPlot('myDiv', data, layout);
    </script>
</body>
</html>
`))

type page struct {
	Title  string
	CDN    string
	Data   template.JS
	Layout template.JS
}

// WriteHTML writes a self contained interactive page for cfg.
func WriteHTML(w io.Writer, cfg *models.PlotConfig) error {
	data, layout := Plotly(cfg)
	// go-json escapes <, > and & so the payload cannot close the script tag.
	d, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode traces: %w", err)
	}
	l, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}

	title := cfg.Layout.Title
	if title == "" {
		title = "Plot"
	}
	return pageTemplate.Execute(w, page{
		Title:  title,
		CDN:    PlotlyCDN,
		Data:   template.JS(d),
		Layout: template.JS(l),
	})
}
