package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitize = bluemonday.UGCPolicy()

	emailTemplate = template.Must(template.New("critique").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f3f4f6; margin: 0; padding: 20px; }
  .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
  .header { background-color: #d97706; color: white; padding: 20px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .content { padding: 30px; }
  h1, h2, h3 { color: #d97706; border-bottom: 2px solid #fcd34d; padding-bottom: 8px; margin-top: 24px; }
  p { margin-bottom: 16px; }
  strong { color: #b45309; background-color: #fef3c7; padding: 0 4px; border-radius: 4px; }
  ul, ol { padding-left: 20px; margin-bottom: 16px; }
  li { margin-bottom: 8px; }
  hr { border: 0; height: 1px; background: #e5e7eb; margin: 30px 0; }
  .footer { background-color: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; border-top: 1px solid #e5e7eb; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>📝 英語添削レポート</h1>
    </div>
    <div class="content">
      <p><strong>{{.Name}}</strong> さんへ</p>
      <p>提出ありがとうございます。AIプロ講師による添削結果をお届けします。</p>
      <hr>
      {{.Body}}
    </div>
    <div class="footer">
      <p>English Grammar Coach AI</p>
    </div>
  </div>
</body>
</html>
`))
)

// RenderHTML converts the markdown critique to sanitized HTML inside the
// fixed report template.
func RenderHTML(name, advice string) (string, error) {
	var converted bytes.Buffer
	if err := markdown.Convert([]byte(advice), &converted); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	data := struct {
		Name string
		Body template.HTML
	}{
		Name: name,
		Body: template.HTML(sanitize.Sanitize(converted.String())),
	}

	var out bytes.Buffer
	if err := emailTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("execute email template: %w", err)
	}

	return out.String(), nil
}

var (
	markdownHeading  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	markdownEmphasis = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	markdownCode     = regexp.MustCompile("`([^`]*)`")
	markdownLink     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
)

// RenderPlainText produces the fallback body for clients that refuse HTML.
// goldmark has no plaintext renderer, so the markup is stripped directly.
func RenderPlainText(name, advice string) string {
	text := markdownHeading.ReplaceAllString(advice, "")
	text = markdownEmphasis.ReplaceAllString(text, "$1")
	text = markdownCode.ReplaceAllString(text, "$1")
	text = markdownLink.ReplaceAllString(text, "$1")

	builder := strings.Builder{}
	builder.WriteString(name)
	builder.WriteString(" さんへ\n\n提出ありがとうございます。AIプロ講師による添削結果をお届けします。\n\n")
	builder.WriteString(strings.TrimSpace(text))
	builder.WriteString("\n\n-- English Grammar Coach AI\n")
	return builder.String()
}
