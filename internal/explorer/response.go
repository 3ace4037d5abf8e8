package explorer

import (
	"bytes"
	"encoding/json"
)

const NoResponse = "No response yet"

// FormatResponse pretty-prints a stored response with two-space indentation,
// keeping the server's key order.
func FormatResponse(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return NoResponse
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// IsFetchError reports whether raw is the generic failure object.
func IsFetchError(raw json.RawMessage) bool {
	var v map[string]any
	if err := json.Unmarshal(raw, &v); err != nil || len(v) != 1 {
		return false
	}
	return v["error"] == MsgFetchFailed
}
