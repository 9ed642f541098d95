// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strings"
)

const pageTmplText = `<div class="citation-page{{if .Decorated}} decorated{{end}}">
  <header>
    <div class="logo">{{with .Logo}}<img src="{{.}}" alt="Logo Municipalidad">{{end}}</div>
    <div class="oficio">
      <div><b>OFICIO N°:</b> {{.Page.Oficio}}</div>
      <div><b>PROCESO N°:</b> {{.Page.Process}}</div>
      <div class="date"><b>{{.Page.City}},</b> {{.Page.DateLine}}</div>
    </div>
  </header>
  <div class="titles">
    <h1>{{.Page.Municipality}}</h1>
    <h2>{{.Page.Court}}</h2>
    <h3>{{.Page.Title}}</h3>
  </div>
  <main>
    <section>
      <h4>{{.Page.OwnerHeading}}</h4>
      <div class="columns">
        <div>{{range .Page.OwnerLeft}}<p><b>{{.Label}}</b> {{.Value}}</p>{{end}}</div>
        <div>{{range .Page.OwnerRight}}<p><b>{{.Label}}</b> {{.Value}}</p>{{end}}</div>
      </div>
    </section>
    <section>
      <h4>{{.Page.InfractionHeading}}</h4>
      {{range .Page.Infraction}}<p><b>{{.Label}}</b> {{.Value}}</p>{{end}}
    </section>
    <div class="legal">
      <p>{{.Page.HearingIntro}} <b><u>{{.Page.HearingWhen}}</u></b>{{.Page.HearingAddress}}</p>
      <p>{{.Page.LegalBasis}}</p>
      <p>{{.Page.LegalWarning}}</p>
    </div>
  </main>
  <div class="signature">
    <div class="sig-box">{{with .Signature}}<img src="{{.}}" alt="Firma">{{end}}</div>
    <div class="sig-line">
      <p>{{.Page.SecretaryName}}</p>
      <p><b>{{.Page.SecretaryTitle}}</b></p>
    </div>
  </div>
  <footer>{{.Page.Footer}}</footer>
</div>`

const printTmplText = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: 8.5in 13in; margin: 0.4in; }
body { margin: 0; font-family: Candara, Calibri, Segoe, "Segoe UI", Optima, Arial, sans-serif; -webkit-font-smoothing: antialiased; }
.citation-page { width: 8.5in; min-height: 13in; background: #fff; color: #000; display: flex; flex-direction: column; box-shadow: none; border: none; }
.citation-page.decorated { box-shadow: 0 10px 15px rgba(0,0,0,.1); border: 1px solid #e2e8f0; }
header { display: flex; justify-content: space-between; align-items: flex-start; padding: 24px 32px 0; font-size: 12pt; }
.logo { width: 96px; height: 96px; }
.logo img { width: 100%; height: 100%; object-fit: contain; }
.oficio .date { margin-top: 8px; }
.titles { text-align: center; font-size: 13pt; margin: 16px 0; padding: 0 32px 8px; }
.titles h1 { font-size: 13pt; font-weight: normal; margin: 0; }
.titles h2 { font-size: 13pt; margin: 4px 0 0; }
.titles h3 { font-size: 13pt; text-decoration: underline; margin: 8px 0 0; }
main { font-size: 13pt; padding: 0 32px; flex-grow: 1; }
main h4 { text-decoration: underline; margin: 16px 0 8px; }
main p { margin: 4px 0; }
.columns { display: grid; grid-template-columns: 1fr 1fr; column-gap: 48px; }
.legal { text-align: justify; margin-top: 24px; }
.legal p { margin-top: 12px; }
.signature { font-size: 13pt; padding: 8px 32px 0; margin-bottom: 64px; text-align: center; }
.sig-box { width: 320px; height: 96px; margin: 0 auto 4px; display: flex; align-items: center; justify-content: center; }
.sig-box img { max-width: 100%; max-height: 100%; }
.sig-line { border-top: 1px solid #cbd5e1; padding-top: 8px; width: 384px; margin: 0 auto 8px; }
.sig-line p { margin: 0; }
footer { font-size: 10pt; text-align: center; padding: 4px 32px 24px; }
.page-break { page-break-after: always; }
.page-break:last-child { page-break-after: auto; }
</style>
</head>
<body>
{{range .Pages}}<div class="page-break">{{.}}</div>
{{end}}<script>
window.onload = function () {
  window.focus();
  window.print();
};
window.onafterprint = function () { window.close(); };
</script>
</body>
</html>
`

var (
	pageTmpl  = template.Must(template.New("page").Parse(pageTmplText))
	printTmpl = template.Must(template.New("print").Parse(printTmplText))
)

func pageMarkup(p Page, decorated bool) (string, error) {
	logo, err := dataURL(p.LogoPath)
	if err != nil {
		return "", fmt.Errorf("embedding logo: %w", err)
	}
	signature, err := dataURL(p.SignaturePath)
	if err != nil {
		return "", fmt.Errorf("embedding signature: %w", err)
	}

	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, struct {
		Page      Page
		Decorated bool
		Logo      template.URL
		Signature template.URL
	}{p, decorated, logo, signature})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// dataURL inlines an image file so print documents are self-contained.
func dataURL(path string) (template.URL, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// PrintDocument is a self-contained HTML document that opens the print
// dialog when loaded.
type PrintDocument struct {
	Title string
	Pages int
	HTML  []byte
}

// WriteTo writes the HTML.
func (d PrintDocument) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.HTML)
	return int64(n), err
}

func newPrintDocument(title string, fragments []string) (PrintDocument, error) {
	pages := make([]template.HTML, len(fragments))
	for i, f := range fragments {
		// Fragments come from pageTmpl, which already escaped them.
		pages[i] = template.HTML(f)
	}

	var buf bytes.Buffer
	err := printTmpl.Execute(&buf, struct {
		Title string
		Pages []template.HTML
	}{title, pages})
	if err != nil {
		return PrintDocument{}, err
	}
	return PrintDocument{Title: title, Pages: len(fragments), HTML: buf.Bytes()}, nil
}
