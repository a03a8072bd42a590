package resources

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var minifyLoaders = map[string]api.Loader{
	".js":  api.LoaderJS,
	".css": api.LoaderCSS,
}

// Minify compacts a script or stylesheet. Other files are returned as is.
func Minify(name string, src []byte) ([]byte, error) {
	loader, ok := minifyLoaders[filepath.Ext(name)]
	if !ok {
		return src, nil
	}

	result := api.Transform(string(src), api.TransformOptions{
		Loader:            loader,
		Target:            api.ES2020,
		Sourcefile:        name,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		var msgs []string
		for _, e := range result.Errors {
			if e.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%s:%d:%d: %s", e.Location.File, e.Location.Line, e.Location.Column, e.Text))
				continue
			}
			msgs = append(msgs, e.Text)
		}
		return nil, fmt.Errorf("esbuild errors:\n%s", strings.Join(msgs, "\n"))
	}
	return result.Code, nil
}
