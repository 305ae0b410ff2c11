package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReceiptType tells whether a receipt was issued on its own or as part of a batch run
type ReceiptType string

const (
	ReceiptTypeIndividual ReceiptType = "individual"
	ReceiptTypeBatch      ReceiptType = "batch"
)

func (t ReceiptType) String() string {
	return string(t)
}

// IsValid reports whether t is a known receipt type
func (t ReceiptType) IsValid() bool {
	return t == ReceiptTypeIndividual || t == ReceiptTypeBatch
}

// ParseReceiptType converts a query/string value into a ReceiptType
func ParseReceiptType(s string) (ReceiptType, error) {
	t := ReceiptType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown receipt type %q", s)
	}
	return t, nil
}

func (t ReceiptType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *ReceiptType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseReceiptType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ReceiptType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *ReceiptType) Scan(value interface{}) error {
	if value == nil {
		*t = ReceiptTypeIndividual
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = ReceiptType(v)
	case []byte:
		*t = ReceiptType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ReceiptType", value)
	}
	return nil
}
