// Package notebook renders a parameters record as a RocketPy simulation
// notebook in Jupyter's nbformat 4 layout.
package notebook

import (
	"encoding/json"
	"strings"
)

// Cell kinds.
const (
	Markdown = "markdown"
	Code     = "code"
)

// Cell is one notebook cell. Source holds the full cell text.
type Cell struct {
	Kind   string
	Source string
}

type cellBase struct {
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
}

// MarshalJSON writes the cell in nbformat 4 layout. Code cells carry an
// empty output list and a null execution count.
func (c Cell) MarshalJSON() ([]byte, error) {
	base := cellBase{CellType: c.Kind, Metadata: map[string]any{}, Source: splitLines(c.Source)}
	if c.Kind != Code {
		return json.Marshal(base)
	}
	return json.Marshal(struct {
		cellBase
		ExecutionCount *int  `json:"execution_count"`
		Outputs        []any `json:"outputs"`
	}{cellBase: base, Outputs: []any{}})
}

// UnmarshalJSON accepts source either as a string or as a list of lines.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Kind = raw.CellType
	var lines []string
	if err := json.Unmarshal(raw.Source, &lines); err == nil {
		c.Source = strings.Join(lines, "")
		return nil
	}
	return json.Unmarshal(raw.Source, &c.Source)
}

// splitLines splits s after every newline, keeping the newlines.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if lines == nil {
		lines = []string{}
	}
	return lines
}

// Notebook is an nbformat 4 document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

func newNotebook() *Notebook {
	return &Notebook{
		Cells: []Cell{},
		Metadata: map[string]any{
			"kernelspec": map[string]any{
				"display_name": "Python 3",
				"language":     "python",
				"name":         "python3",
			},
			"language_info": map[string]any{"name": "python"},
		},
		NBFormat:      4,
		NBFormatMinor: 4,
	}
}

func (nb *Notebook) markdown(text string) {
	nb.Cells = append(nb.Cells, Cell{Kind: Markdown, Source: text})
}

func (nb *Notebook) code(text string) {
	nb.Cells = append(nb.Cells, Cell{Kind: Code, Source: text})
}

// Encode returns the notebook as JSON indented by one space, the layout
// Jupyter itself writes.
func (nb *Notebook) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
