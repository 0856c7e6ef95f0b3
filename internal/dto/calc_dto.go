package dto

import (
	"bytes"
	"encoding/json"
)

// Number accepts a JSON number or a numeric string and preserves the exact
// digits as written, so operands never round-trip through binary floats.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	*n = Number(b)
	return nil
}

type CalculateRequest struct {
	Operand1  Number `json:"operand1"`
	Operand2  Number `json:"operand2"`
	Operation string `json:"operation"`
}

type HistoryItem struct {
	UserID    string `json:"userId,omitempty"`
	Operand1  string `json:"operand1"`
	Operand2  string `json:"operand2"`
	Operation string `json:"operation"`
	Result    string `json:"result"`
	RoleUsed  string `json:"roleUsed,omitempty"`
	Timestamp string `json:"timestamp"`
}

type CalculateResponse struct {
	Result    string        `json:"result"`
	History   []HistoryItem `json:"history"`
	UserRoles []string      `json:"user_roles"`
}
