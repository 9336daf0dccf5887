package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodes a JSONB column into dest. NULL leaves dest untouched.
func scanJSON(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONMap is a free-form JSON object column
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return valueJSON(map[string]interface{}(m))
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	out := map[string]interface{}{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Checklist is a task readiness checklist stored as a JSON array
type Checklist []ChecklistItem

// Value implements driver.Valuer
func (c Checklist) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return valueJSON([]ChecklistItem(c))
}

// Scan implements sql.Scanner
func (c *Checklist) Scan(src interface{}) error {
	out := []ChecklistItem{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*c = out
	return nil
}
