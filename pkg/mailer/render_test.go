package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHTMLConvertsMarkdown(t *testing.T) {
	html, err := RenderHTML("Aya", "## 得点\n**85点**です。\n\n- 良い点1\n- 良い点2")
	require.NoError(t, err)

	require.Contains(t, html, "<h2>得点</h2>")
	require.Contains(t, html, "<strong>85点</strong>")
	require.Contains(t, html, "<li>良い点1</li>")
	require.Contains(t, html, "<strong>Aya</strong> さんへ")
	require.Contains(t, html, "英語添削レポート")
}

func TestRenderHTMLSanitizesMarkup(t *testing.T) {
	html, err := RenderHTML("Bob", "ok<script>alert(1)</script>")
	require.NoError(t, err)

	require.NotContains(t, html, "<script>")
	require.NotContains(t, html, "alert(1)")
}

func TestRenderPlainTextStripsMarkdown(t *testing.T) {
	text := RenderPlainText("Aya", "## 得点\n**85点** `code` [詳細](https://example.com)")

	require.True(t, strings.HasPrefix(text, "Aya さんへ"))
	require.Contains(t, text, "得点")
	require.Contains(t, text, "85点")
	require.Contains(t, text, "code")
	require.Contains(t, text, "詳細")
	require.NotContains(t, text, "##")
	require.NotContains(t, text, "**")
	require.NotContains(t, text, "https://example.com")
}
