package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

// letterData is the rendering input for the letter template.
type letterData struct {
	Title      string
	Author     string
	Date       string
	Paragraphs []string
	Style      template.CSS
}

var letterTemplate = template.Must(template.New("letter").Parse(letterHTML))

// RenderLetterHTML produces the printable HTML for a letter body in the
// given template style. Paragraphs are split on blank lines; single
// newlines inside a paragraph are preserved as line breaks by CSS.
func RenderLetterHTML(req Request) (string, error) {
	if strings.TrimSpace(req.Body) == "" {
		return "", ErrEmptyBody
	}
	style, ok := templateStyles[req.Template]
	if !ok {
		return "", ErrUnknownTemplate
	}

	data := letterData{
		Title:      req.Title,
		Author:     req.Author,
		Date:       time.Now().Format("January 2, 2006"),
		Paragraphs: splitParagraphs(req.Body),
		Style:      template.CSS(style),
	}

	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func splitParagraphs(body string) []string {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	var paragraphs []string
	for _, chunk := range strings.Split(normalized, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			paragraphs = append(paragraphs, chunk)
		}
	}
	return paragraphs
}

const letterHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    @page { size: A4; }
    p { white-space: pre-line; }
    {{.Style}}
  </style>
</head>
<body>
  <header>
    {{if .Author}}<div class="author">{{.Author}}</div>{{end}}
    <div class="date">{{.Date}}</div>
  </header>
  <main>
    {{range .Paragraphs}}<p>{{.}}</p>
    {{end}}
  </main>
</body>
</html>`

var templateStyles = map[Template]string{
	TemplateClassic: `
    body { font-family: Georgia, 'Times New Roman', serif; font-size: 12pt; line-height: 1.6; color: #1a1a1a; margin: 0; }
    header { border-bottom: 2px solid #1a1a1a; padding-bottom: 12px; margin-bottom: 28px; }
    .author { font-size: 14pt; font-weight: bold; letter-spacing: 1px; }
    .date { color: #555; font-size: 10pt; margin-top: 4px; }
    p { margin: 0 0 14px 0; text-align: justify; }`,
	TemplateModern: `
    body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; line-height: 1.7; color: #222; margin: 0; }
    header { border-left: 5px solid #1f6f54; padding-left: 16px; margin-bottom: 32px; }
    .author { font-size: 15pt; font-weight: 600; color: #1f6f54; }
    .date { color: #777; font-size: 9pt; text-transform: uppercase; letter-spacing: 2px; margin-top: 6px; }
    p { margin: 0 0 12px 0; }`,
	TemplateMinimal: `
    body { font-family: Helvetica, Arial, sans-serif; font-size: 10.5pt; line-height: 1.5; color: #000; margin: 0; }
    header { margin-bottom: 24px; }
    .author { font-weight: bold; }
    .date { font-size: 9pt; color: #444; }
    p { margin: 0 0 10px 0; }`,
}
