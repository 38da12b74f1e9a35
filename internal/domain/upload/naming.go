package upload

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxFileNameBytes = 120

var wsRe = regexp.MustCompile(`\s+`)

// SafeFileName reduces a client-supplied name to something usable as the
// last segment of an object path. Directory parts are dropped.
func SafeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.Trim(strings.TrimSpace(name), "/")
	name = path.Base(name)
	name = norm.NFC.String(name)

	b := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune(`/:*?"<>|#[]`, r):
			b = append(b, '_')
		default:
			b = append(b, r)
		}
	}
	out := wsRe.ReplaceAllString(string(b), " ")
	out = strings.Trim(out, " .")

	if len(out) > maxFileNameBytes {
		out = out[:maxFileNameBytes]
		for !utf8.ValidString(out) {
			out = out[:len(out)-1]
		}
		out = strings.TrimRight(out, " .")
	}
	if out == "" {
		return "file"
	}
	return out
}

// ObjectPath is client-uploads/{uid}/{uploadId}/{name}.
func ObjectPath(uid, uploadID, fileName string) string {
	return path.Join("client-uploads", uid, uploadID, fileName)
}
