package bundle

import (
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
)

// DefaultTitle is used when no title was configured
const DefaultTitle = "Black Cat: 9 Lives"

// text/template is used on purpose: html/template would escape the script and break it.
var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html><html><head><meta charset=utf-8>
<title>{{.Title}}</title>
<meta name=viewport content="width=device-width,initial-scale=1,user-scalable=no">
<style>
  html,body{margin:0;height:100%;background:#070016;overflow:hidden}
  canvas{display:block;margin:auto;image-rendering:pixelated;background:#000}
  #ui{position:fixed;left:8px;top:8px;color:#fff;font:14px/1.2 monospace;text-shadow:0 0 6px #000}
</style>
</head><body>
<canvas id=c width=960 height=540></canvas>
<div id=ui></div>
<script>{{.Script}}</script>
</body></html>`))

// Page contains the values interpolated into the document template
type Page struct {
	Title  string
	Script string
}

// Assemble renders the document with the default title.
func Assemble(script string) (string, error) {
	return Render(Page{Title: DefaultTitle, Script: script})
}

// Render renders the document for the given page. The script is inserted verbatim.
func Render(page Page) (string, error) {
	if page.Title == "" {
		page.Title = DefaultTitle
	}

	var buffer strings.Builder
	err := pageTmpl.Execute(&buffer, page)
	if err != nil {
		return "", eris.Wrap(err, "failed to render page template")
	}

	return buffer.String(), nil
}

// CheckScript reports problems that will break the generated document. It doesn't change anything;
// callers are expected to log the result.
func CheckScript(script string) error {
	if strings.Contains(strings.ToLower(script), "</script") {
		return eris.New("script contains a closing </script> tag which will end the inline script early")
	}

	return nil
}
