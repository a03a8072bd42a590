package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapchart/internal/vars"
)

// generateGlobalsDocs generates template globals documentation.
func generateGlobalsDocs(outDir string) error {
	log.Printf("Generating globals docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	globalsPath := filepath.Clean(filepath.Join(outDir, "globals.md"))

	existingContent, err := os.ReadFile(globalsPath) //#nosec G304 -- path is constructed from trusted config
	if err != nil {
		return generateFullGlobalsDoc(globalsPath)
	}

	content := string(existingContent)
	if strings.Contains(content, generatedHeader) {
		return updateGlobalsDoc(globalsPath, content)
	}
	return appendGlobalsDoc(globalsPath, content)
}

// GlobalObject represents a name available in templates.
type GlobalObject struct {
	Name        string
	Type        string
	Description string
}

// getGlobalsSchema returns the variables bound for every render, in
// binding order. Helpers come from the vars package itself.
func getGlobalsSchema() []GlobalObject {
	globals := []GlobalObject{
		{
			Name:        "<column>",
			Type:        "list",
			Description: "One list per result column holding that column's values in row order. Column names are turned into identifiers: invalid characters become underscores and clashes get a numeric suffix.",
		},
		{
			Name:        vars.DataName,
			Type:        "list of dicts",
			Description: "The raw rows, each keyed by the original column names.",
		},
		{
			Name:        vars.ColumnsName,
			Type:        "list of strings",
			Description: "The original column names in result order.",
		},
	}
	for _, h := range vars.Helpers() {
		globals = append(globals, GlobalObject{Name: h.Name + "()", Type: "function", Description: h.Doc})
	}
	return append(globals,
		GlobalObject{
			Name:        "<macro file>.<function>()",
			Type:        "function",
			Description: "Public functions of each .star file in the macros directory, namespaced by file name.",
		},
		GlobalObject{
			Name:        "<fragment>",
			Type:        "object",
			Description: "Each stored configuration fragment, by name.",
		},
	)
}

// generateGlobalsReferenceSection generates the reference section markdown.
func generateGlobalsReferenceSection() string {
	w := NewMarkdownWriter()

	w.Header(2, "Reference")
	w.GeneratedMarker()

	headers := []string{"Name", "Type", "Description"}
	var rows [][]string
	for _, g := range getGlobalsSchema() {
		rows = append(rows, []string{InlineCode(g.Name), g.Type, g.Description})
	}
	w.Table(headers, rows)

	w.Header(3, "Usage Examples")
	w.CodeBlock("hcl", `# Object-literal template: variables are plain expressions
{
  xAxis  = { type = "category", data = region }
  series = [{ type = "bar", data = amount }]
  title  = { text = "Total ${sum(amount)}" }
}`)
	w.CodeBlock("python", `# Script template (advanced mode): return the configuration
top = [r for r in data if r["amount"] > mean(amount)]
return dict(defaultTheme, series=[{"type": "pie", "data": top}])`)

	return w.String()
}

// generateFullGlobalsDoc generates a complete globals.md file.
func generateFullGlobalsDoc(path string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Template Variables", "Names available in LeapChart templates")
	w.GeneratedMarker()

	w.Header(1, "Template Variables")
	w.Paragraph("Every render binds the query result, the helper functions, the macros and the stored fragments as variables. When two bindings share a name the first one wins, in the order listed below.")

	w.Text(generateGlobalsReferenceSection())

	return os.WriteFile(path, w.Bytes(), 0600)
}

// updateGlobalsDoc updates the generated section in an existing file.
func updateGlobalsDoc(path, content string) error {
	markerIdx := strings.Index(content, "## Reference")
	if markerIdx == -1 {
		return appendGlobalsDoc(path, content)
	}

	newContent := strings.TrimSpace(content[:markerIdx]) + "\n\n" + generateGlobalsReferenceSection()
	return os.WriteFile(path, []byte(newContent), 0600)
}

// appendGlobalsDoc appends the generated reference section to an existing file.
func appendGlobalsDoc(path, content string) error {
	newContent := strings.TrimSpace(content) + "\n\n" + generateGlobalsReferenceSection()
	return os.WriteFile(path, []byte(newContent), 0600)
}
