package charts

import (
	"bytes"
	"context"
	"html"
	"regexp"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchart/internal/ui/host"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

// attr returns the decoded values of every name="..." attribute in body,
// as the browser's HTML parser would see them.
func attr(t *testing.T, body, name string) []string {
	t.Helper()
	re := regexp.MustCompile(regexp.QuoteMeta(name) + `="([^"]*)"`)
	var out []string
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		out = append(out, html.UnescapeString(m[1]))
	}
	return out
}

func TestIndexPage_FlagKeysAreQuotedForScript(t *testing.T) {
	body := renderString(t, IndexPage("Charts", false, nil, []FlagState{
		{Flag: host.Flag{Key: `it's'; alert(1); '`}, On: false},
		{Flag: host.Flag{Key: "plain", Label: "Plain <b>"}, On: true},
	}))

	clicks := attr(t, body, "data-on:click")
	require.Len(t, clicks, 2)
	assert.Equal(t, `$flag = "it's'; alert(1); '"; $value = true; @post("/api/flags")`, clicks[0])
	assert.Equal(t, `$flag = "plain"; $value = false; @post("/api/flags")`, clicks[1])

	assert.Contains(t, body, `class="lc-flag lc-flag-off"`)
	assert.Contains(t, body, `class="lc-flag lc-flag-on"`)
	assert.Contains(t, body, "Plain &lt;b&gt;: on")
	assert.Contains(t, body, `<p class="lc-empty">No chart files found.</p>`)
}

func TestIndexPage_Catalog(t *testing.T) {
	body := renderString(t, IndexPage("Charts", true, []Entry{
		{Name: "sales", Title: "Monthly sales", HasQuery: true},
		{Name: "a b"},
	}, nil))

	assert.Contains(t, body, `<li><a href="/charts/sales">Monthly sales</a> </li>`)
	assert.Contains(t, body, `<a href="/charts/a%20b">a b</a> <span class="lc-badge">static</span>`)
	assert.Contains(t, body, "@get('/reload'")
	assert.NotContains(t, body, "lc-flags")
}

func TestChartPage_StreamPathIsQuotedForScript(t *testing.T) {
	body := renderString(t, ChartPage("Sales", false, `x');alert(1);('`))

	inits := attr(t, body, "data-init")
	require.Len(t, inits, 1)
	assert.Regexp(t, `^@get\("/charts/[^"'()]+/sse"\)$`, inits[0])
	assert.Contains(t, inits[0], "%27")
	assert.NotContains(t, body, "@get('/reload'", "reload stream only in dev")
}

func TestRoot(t *testing.T) {
	body := renderString(t, Root("s1"))
	assert.Equal(t, `<div id="chart-root"><div id="s1-surface" class="lc-surface" data-surface="s1"></div><div id="s1-modal-host"></div></div>`, body)
}
