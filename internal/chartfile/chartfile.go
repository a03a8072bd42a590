// Package chartfile reads chart definition files. A chart file holds a
// template, optionally preceded by a header of "-- key: value" lines:
//
//	-- query: SELECT month, sum(amount) AS total FROM sales GROUP BY 1
//	-- title: Monthly sales
//	{ type: "bar", series: [{ data: total }] }
//
// A header value may continue on following "--" lines without a key.
package chartfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapchart/internal/template"
)

// Ext is the chart file extension.
const Ext = ".chart"

// ErrInvalidName is returned by Find for names that are not plain file names.
var ErrInvalidName = errors.New("invalid chart name")

// File is a parsed chart file.
type File struct {
	Name     string // file name without extension
	Path     string
	Title    string
	Query    string
	Template template.Template
}

// Parse parses chart file content. name is used for error positions.
func Parse(name string, content []byte) (*File, error) {
	f := &File{Name: name}
	headers := map[string]*strings.Builder{}
	var order []string
	var current string

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var body strings.Builder
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" && current == "" {
				continue
			}
			if rest, ok := strings.CutPrefix(trimmed, "--"); ok {
				rest = strings.TrimSpace(rest)
				if key, value, found := strings.Cut(rest, ":"); found && isKey(key) {
					current = strings.ToLower(strings.TrimSpace(key))
					if _, dup := headers[current]; dup {
						return nil, fmt.Errorf("%s: duplicate header %q", name, current)
					}
					headers[current] = &strings.Builder{}
					headers[current].WriteString(strings.TrimSpace(value))
					order = append(order, current)
					continue
				}
				if current != "" {
					headers[current].WriteByte('\n')
					headers[current].WriteString(rest)
				}
				continue
			}
			inHeader = false
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	for _, key := range order {
		value := strings.TrimSpace(headers[key].String())
		switch key {
		case "query":
			f.Query = value
		case "title":
			f.Title = value
		default:
			return nil, fmt.Errorf("%s: unknown header %q", name, key)
		}
	}
	f.Template = template.New(name, body.String())
	return f, nil
}

func isKey(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

// Load reads and parses one chart file.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}
	f, err := Parse(strings.TrimSuffix(filepath.Base(path), Ext), content)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// List loads every chart file in dir, sorted by name. A missing directory
// yields no files.
func List(dir string) ([]*File, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("scanning templates directory: %w", err)
	}
	sort.Strings(paths)

	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		f, err := Load(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Find loads the chart called name from dir.
func Find(dir, name string) (*File, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	return Load(filepath.Join(dir, name+Ext))
}
