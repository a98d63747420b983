package panel

import (
	"github.com/ettle/strcase"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

// NoDataPlaceholder is rendered as the only row of an empty table.
const NoDataPlaceholder = "No data"

// Column is a table header.
type Column struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Cell is one rendered table cell. Input is set when the cell is an edit input.
type Cell struct {
	Column string    `json:"column"`
	Value  string    `json:"value"`
	Input  InputKind `json:"input,omitempty"`
}

// Row is one rendered table row.
type Row struct {
	ID      string `json:"id"`
	Editing bool   `json:"editing"`
	Cells   []Cell `json:"cells"`
}

// FormField is one input of the create form.
type FormField struct {
	Name        string    `json:"name"`
	Placeholder string    `json:"placeholder"`
	Input       InputKind `json:"input"`
	Value       string    `json:"value"`
}

// TableView is the render model of a panel.
type TableView struct {
	Code         string         `json:"code"`
	Title        string         `json:"title"`
	Noun         string         `json:"noun"`
	LoadLabel    string         `json:"load_label"`
	Columns      []Column       `json:"columns"`
	Rows         []Row          `json:"rows"`
	Empty        bool           `json:"empty"`
	Placeholder  string         `json:"placeholder,omitempty"`
	ColSpan      int            `json:"colspan"`
	CreateFields []FormField    `json:"create_fields"`
	Status       neushop.Status `json:"status"`
	Loading      bool           `json:"loading"`
}

// View snapshots the panel into a render model. The row being edited renders
// its editable columns as inputs prefilled from the edit draft.
func (p *Panel) View() TableView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg := p.config
	view := TableView{
		Code:      cfg.Code,
		Title:     cfg.Title(),
		Noun:      cfg.Noun,
		LoadLabel: "Load All " + cfg.Label + "S",
		Columns:   make([]Column, len(cfg.Display)),
		Rows:      make([]Row, 0, len(p.records)),
		ColSpan:   len(cfg.Display) + 1,
		Status:    p.status,
		Loading:   p.loading,
	}
	if p.loading {
		view.LoadLabel = "Loading..."
	}
	for i, col := range cfg.Display {
		view.Columns[i] = Column{Name: col, Label: col}
	}

	for _, rec := range p.records {
		id := rec.String(cfg.PrimaryKey)
		editing := p.edit.Active && p.edit.ID == id
		row := Row{ID: id, Editing: editing, Cells: make([]Cell, len(cfg.Display))}
		for i, col := range cfg.Display {
			cell := Cell{Column: col, Value: rec.String(col)}
			if editing && cfg.IsEditable(col) {
				cell.Value = p.edit.Draft[col]
				cell.Input = InputText
				if _, ok := cfg.Numeric[col]; ok {
					cell.Input = InputNumber
				}
			}
			row.Cells[i] = cell
		}
		view.Rows = append(view.Rows, row)
	}
	if len(view.Rows) == 0 {
		view.Empty = true
		view.Placeholder = NoDataPlaceholder
	}

	for _, field := range cfg.CreateFields() {
		view.CreateFields = append(view.CreateFields, FormField{
			Name:        field.Name,
			Placeholder: strcase.ToCase(field.Name, strcase.TitleCase, ' '),
			Input:       field.Input,
			Value:       p.draft[field.Name],
		})
	}
	return view
}

// RowCount is the number of rendered body rows, counting the placeholder.
func (v TableView) RowCount() int {
	if v.Empty {
		return 1
	}
	return len(v.Rows)
}
