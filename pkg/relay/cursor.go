package relay

import (
	"encoding/base64"

	"learninglog-backend/pkg/errors"
)

// ToCursor encodes a storage id into an opaque pagination cursor. Cursors
// carry no type tag: they are scoped to a single connection's item type.
func ToCursor(id string) string {
	return base64.StdEncoding.EncodeToString([]byte(id))
}

// FromCursor decodes an opaque cursor back into a storage id. It fails
// with an invalid-cursor error when the input is not base64 or decodes to
// an empty string.
//
// A cursor is only meaningful relative to the connection's canonical
// ordering. A structurally valid cursor whose row no longer exists (or
// that belongs to a different connection) decodes fine here and yields an
// empty page downstream; the resolver deliberately does not fail in that
// case.
func FromCursor(cursor string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", errors.NewInvalidCursorError().WithCause(err)
	}
	if len(raw) == 0 {
		return "", errors.NewInvalidCursorError()
	}
	return string(raw), nil
}
