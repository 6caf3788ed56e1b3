package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Custom serializer for the encrypted credentials blob

// CipherText is one AES-CTR encrypted value, both halves hex encoded
type CipherText struct {
	IV      string `json:"iv"`
	Content string `json:"content"`
}

// AccessData maps credential field names (access_token, user_name, ...)
// to their encrypted values. Stored as a single JSON column
type AccessData map[string]CipherText

// Value implements the driver.Valuer interface.
// This defines how the map is stored in the database.
func (d AccessData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal access data, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
// This defines how the database value is converted back into go.
func (d *AccessData) Scan(value interface{}) error {
	if value == nil {
		*d = AccessData{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan AccessData, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*d = AccessData{}
		return nil
	}

	return json.Unmarshal([]byte(str), d)
}
