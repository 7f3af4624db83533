// Package frontmatter projects a loom table into the YAML header of its host
// document so that other tools can query it. The projection is lossy and is
// never read back.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	loom "github.com/goliatone/go-loom"
)

const (
	KeyVersion = "loom-version"
	KeyColumns = "loom-columns"
	KeyRows    = "loom-rows"
)

var delimiter = []byte("---")

// Project returns the header keys for state. Columns with a frontmatterKey
// contribute the content of their cells in row order. A key naming one of
// the fixed loom keys is ignored, and when columns share a key the first
// one wins.
func Project(state loom.LoomState) map[string]any {
	columns := make([]string, len(state.Model.Columns))
	for i, column := range state.Model.Columns {
		columns[i] = column.Content
	}
	out := map[string]any{
		KeyVersion: state.PluginVersion,
		KeyColumns: columns,
		KeyRows:    len(state.Model.Rows),
	}

	for _, column := range state.Model.Columns {
		key := strings.TrimSpace(column.FrontmatterKey)
		if key == "" {
			continue
		}
		if _, taken := out[key]; taken {
			continue
		}
		values := make([]string, len(state.Model.Rows))
		for i, row := range state.Model.Rows {
			for _, cell := range row.Cells {
				if cell.ColumnID == column.ID {
					values[i] = cell.Content
					break
				}
			}
		}
		out[key] = values
	}
	return out
}

// Apply merges the projection of state into document's YAML header,
// creating the header when document has none. Unrelated keys and the body
// are kept as they are.
func Apply(document []byte, state loom.LoomState) ([]byte, error) {
	header, body, found := Split(document)

	var doc yaml.Node
	if found && len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &doc); err != nil {
			return nil, fmt.Errorf("frontmatter: parse header: %w", err)
		}
	}
	root, err := mappingRoot(&doc)
	if err != nil {
		return nil, err
	}

	projection := Project(state)
	for _, key := range orderedKeys(projection) {
		var value yaml.Node
		if err := value.Encode(projection[key]); err != nil {
			return nil, fmt.Errorf("frontmatter: encode %s: %w", key, err)
		}
		setKey(root, key, &value)
	}

	var buf bytes.Buffer
	buf.Write(delimiter)
	buf.WriteByte('\n')
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return nil, fmt.Errorf("frontmatter: encode header: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode header: %w", err)
	}
	buf.Write(delimiter)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes(), nil
}

// Split separates a leading "---" YAML header from the rest of document.
// found is false when document has no complete header.
func Split(document []byte) (header, body []byte, found bool) {
	first, rest, ok := cutLine(document)
	if !ok && len(first) == 0 {
		return nil, document, false
	}
	if !bytes.Equal(bytes.TrimRight(first, " \t\r"), delimiter) {
		return nil, document, false
	}
	offset := len(document) - len(rest)
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), delimiter) {
			end := len(document) - len(rest)
			return document[offset:end], next, true
		}
		rest = next
	}
	return nil, document, false
}

func cutLine(b []byte) (line, rest []byte, ok bool) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i], b[i+1:], true
	}
	return b, nil, false
}

func mappingRoot(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if doc.Kind != yaml.DocumentNode {
		return nil, errors.New("frontmatter: header is not a YAML document")
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("frontmatter: header is not a mapping")
	}
	return root, nil
}

func setKey(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// orderedKeys puts the fixed loom keys first, then column keys by name.
func orderedKeys(projection map[string]any) []string {
	keys := []string{KeyVersion, KeyColumns, KeyRows}
	var extra []string
	for key := range projection {
		if key == KeyVersion || key == KeyColumns || key == KeyRows {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
