package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a backend-assigned task identifier. Backends may use integers or
// opaque strings; both are carried as text.
type ID string

func (id ID) String() string { return string(id) }

// Int returns the numeric value of id when it is written as a canonical
// integer. Ids such as "007" or "+5" stay opaque strings.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(id) {
		return 0, false
	}
	return n, true
}

// MarshalJSON emits a JSON number for canonical integer ids and a string
// otherwise, so the id always decodes back to the same text.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, ok := id.Int(); ok {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid task id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}
