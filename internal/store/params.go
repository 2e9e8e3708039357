package store

import (
	"encoding/json"

	"github.com/Aman-CERP/codelibrarian/internal/model"
)

func decodeParameters(raw string, out *[]model.Parameter) error {
	if raw == "" {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), out)
}

func decodeDecorators(raw string, out *[]string) error {
	if raw == "" {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), out)
}
