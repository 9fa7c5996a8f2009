package model

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cast"
)

// System field identifiers every kintone app carries.
const (
	FieldRecordID     = "$id"
	FieldRecordNumber = "レコード番号"
	FieldUpdatedTime  = "更新日時"
	FieldCreatedTime  = "作成日時"
	// FieldProductCD is the legacy product code column shown on cards.
	FieldProductCD = "商品CD"
)

// Record is a kintone record: field identifier to cell. Cells are kept as raw
// JSON so the record can be passed to the client exactly as upstream sent it.
type Record map[string]json.RawMessage

// Value returns the scalar value of the named field, or "" when the field is
// absent or not a scalar.
func (r Record) Value(field string) string {
	return CellString(r[field])
}

// ID returns the record identifier, falling back to the record number field.
func (r Record) ID() string {
	if id := r.Value(FieldRecordID); id != "" {
		return id
	}
	return r.Value(FieldRecordNumber)
}

// CellString extracts the scalar carried by a cell.
//
// A cell is either an object with a "value" member, whose value is used, or a
// bare scalar. Strings, numbers and booleans are rendered as strings;
// everything else (null, arrays, objects, malformed JSON) yields "".
func CellString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}

	if obj, ok := v.(map[string]any); ok {
		inner, ok := obj["value"]
		if !ok {
			return ""
		}
		v = inner
	}

	switch v.(type) {
	case string, json.Number, bool:
		s, err := cast.ToStringE(v)
		if err != nil {
			return ""
		}
		return s
	default:
		return ""
	}
}
