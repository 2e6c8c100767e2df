package upstream

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

func TestParseJSONFallsBackToText(t *testing.T) {
	doc, err := Parse([]byte("<html>maintenance</html>"), FormatJSON)
	require.NoError(t, err)
	require.True(t, doc.Fallback)
	require.Equal(t, FormatText, doc.Format)
	require.Equal(t, "<html>maintenance</html>", doc.Text())
	require.Empty(t, Items(doc))
}

func TestParseJSONKeepsNumberText(t *testing.T) {
	doc, err := Parse([]byte(`{"content":[{"dmobscd":1001210,"swl":75.20}]}`), FormatJSON)
	require.NoError(t, err)

	items := Items(doc)
	require.Len(t, items, 1)
	require.Equal(t, "1001210", Field{Keys: []string{"dmobscd"}}.From(items[0]))
	require.Equal(t, "75.20", Field{Keys: []string{"swl"}}.From(items[0]))
}

func TestParseXMLRepeatedItems(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header><resultCode>00</resultCode></header>
  <body>
    <items>
      <item><damcd>1001210</damcd><damnm>소양강댐</damnm></item>
      <item><damcd>1003110</damcd><damnm>충주댐</damnm></item>
    </items>
  </body>
</response>`)
	doc, err := Parse(body, FormatXML)
	require.NoError(t, err)

	items := Items(doc)
	require.Len(t, items, 2)
	require.Equal(t, "충주댐", Field{Keys: []string{"damnm"}}.From(items[1]))
}

func TestParseXMLSingleItemIsWrapped(t *testing.T) {
	doc, err := Parse([]byte(`<response><body><items><item type="a"><code>1</code></item></items></body></response>`), FormatXML)
	require.NoError(t, err)

	items := Items(doc)
	require.Len(t, items, 1)
	require.Equal(t, "a", items[0]["@type"])
}

func TestParseXMLMalformed(t *testing.T) {
	_, err := Parse([]byte(`<response><body>`), FormatXML)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, CodeParse))
	require.False(t, Retryable(err))
}

func TestFieldPrefersFirstNonEmptyKey(t *testing.T) {
	field := Field{Name: "storage", Keys: []string{"swl", "nowrsvwtqy"}}
	require.Equal(t, "120.5", field.From(map[string]any{"swl": " ", "nowrsvwtqy": "120.5"}))
	require.Equal(t, "", field.From(map[string]any{"other": "x"}))
}
