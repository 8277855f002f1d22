package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// SurveyPayload is the untyped form submission. Values stay raw JSON so they
// reach the sheet exactly as the client sent them.
type SurveyPayload map[string]json.RawMessage

// Column binds an inbound payload field to its worksheet header.
type Column struct {
	Field  string
	Header string
}

// Columns lists the sheet columns in write order, excluding the timestamp.
var Columns = []Column{
	{Field: "name", Header: "Name"},
	{Field: "overall_experience", Header: "Overall Experience"},
	{Field: "trainer_explanation", Header: "Trainer Explanation"},
	{Field: "content_usefulness", Header: "Content Usefulness"},
	{Field: "session_pace", Header: "Session Pace"},
	{Field: "recommend_workshop", Header: "Recommend Workshop"},
	{Field: "future_topic", Header: "Future Topic"},
}

const (
	// TimestampHeader is the server generated capture time column.
	TimestampHeader = "Timestamp"
	// TimestampLayout mirrors the en-US locale rendering used by the form owners.
	TimestampLayout = "1/2/2006, 3:04:05 PM"
)

// Cell is a single header/value pair of a SheetRow.
type Cell struct {
	Header string
	Value  json.RawMessage
}

// SheetRow is the record appended to the worksheet for one submission.
type SheetRow struct {
	cells []Cell
}

// NewSheetRow remaps payload fields to their display headers and stamps the
// capture time. Fields absent from the payload are left out of the row.
func NewSheetRow(payload SurveyPayload, capturedAt time.Time) SheetRow {
	cells := make([]Cell, 0, len(Columns)+1)
	for _, column := range Columns {
		value, ok := payload[column.Field]
		if !ok || len(value) == 0 {
			continue
		}
		cells = append(cells, Cell{Header: column.Header, Value: value})
	}

	stamp, _ := json.Marshal(capturedAt.Format(TimestampLayout))
	cells = append(cells, Cell{Header: TimestampHeader, Value: stamp})

	return SheetRow{cells: cells}
}

// Cells returns a copy of the row cells in column order.
func (r SheetRow) Cells() []Cell {
	return append([]Cell{}, r.cells...)
}

// Value looks up a cell by header.
func (r SheetRow) Value(header string) (json.RawMessage, bool) {
	for _, cell := range r.cells {
		if cell.Header == header {
			return cell.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the row as an object whose keys keep column order.
func (r SheetRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range r.cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(cell.Header)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, cell.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeRows renders rows as the JSON array expected by the sheet API.
// HTML characters are left unescaped.
func EncodeRows(rows ...SheetRow) (string, error) {
	if rows == nil {
		rows = []SheetRow{}
	}
	encoded, err := marshalNoEscape(rows)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Acknowledgement is returned to the caller once the row has been written.
type Acknowledgement struct {
	Success bool `json:"success"`
}
