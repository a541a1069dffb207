package upload

import (
	"encoding/json"
	"fmt"
)

type SubmitUploadDTO struct {
	FileName string           `json:"file_name" validate:"max=255"`
	Rows     []map[string]any `json:"rows" validate:"required"`
}

// ToRows stringifies cell values so numeric JSON cells validate the same way
// as sheet cells.
func (d SubmitUploadDTO) ToRows() []Row {
	rows := make([]Row, len(d.Rows))
	for i, raw := range d.Rows {
		cells := make(map[string]string, len(raw))
		for k, v := range raw {
			cells[k] = cellString(v)
		}
		rows[i] = NormalizeRow(cells)
	}
	return rows
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

type BatchesResponse struct {
	Batches []*Batch `json:"batches"`
}
