package httpjson

import (
	"encoding/json"
	"net/http"
)

// maxBody caps JSON request bodies; file content never goes through here.
const maxBody = 64 << 10

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Read decodes a single JSON object and rejects unknown fields.
func Read(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Error uses the same {"message"} shape as the router's own failures.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]any{"status": status, "message": msg})
}
