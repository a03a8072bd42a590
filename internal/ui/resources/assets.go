// Package resources serves the page-side chart bridge and its styles.
package resources

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// Asset names referenced by pages.
const (
	ScriptAsset = "leapchart.js"
	StyleAsset  = "leapchart.css"
)

// StaticPath returns the URL path for a static asset.
func StaticPath(path string) string {
	return "/static/" + path
}
