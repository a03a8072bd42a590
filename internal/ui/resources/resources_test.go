package resources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServesBridge(t *testing.T) {
	h := Handler()
	for _, asset := range []string{ScriptAsset, StyleAsset} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StaticPath(asset), nil))
		assert.Equal(t, http.StatusOK, rec.Code, asset)
		assert.NotEmpty(t, rec.Body.String(), asset)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StaticPath("leapchart.js"), nil))
	assert.Contains(t, rec.Body.String(), "window.leapchart")
}

func TestMinify(t *testing.T) {
	out, err := Minify("a.js", []byte("// note\nfunction add(first, second) {\n  return first + second;\n}\nwindow.add = add;\n"))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "// note")
	assert.Contains(t, string(out), "window.add")

	out, err = Minify("a.css", []byte(".chart {\n  color: #ff0000;\n}\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), ".chart{color:")

	out, err = Minify("a.txt", []byte("as is"))
	require.NoError(t, err)
	assert.Equal(t, "as is", string(out))

	_, err = Minify("bad.js", []byte("function ("))
	assert.ErrorContains(t, err, "esbuild errors")
}
