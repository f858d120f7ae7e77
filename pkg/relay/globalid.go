// Package relay implements the opaque identifier protocol used by the
// GraphQL API: global ids that combine an entity-type tag with a storage
// key, and pagination cursors that wrap a storage key alone. Both are
// base64 so the wire representation stays printable-ASCII safe.
package relay

import (
	"encoding/base64"
	"strings"

	"learninglog-backend/pkg/errors"
)

// Separator joins the type tag and the storage id inside a global id.
// Storage ids are uuids and never contain it.
const Separator = ":"

// NodeType is the closed set of entity kinds addressable through global
// ids. Callers switch on the decoded value instead of comparing strings.
type NodeType string

const (
	// NodeTypeLearningLog tags learning-log entries.
	NodeTypeLearningLog NodeType = "LearningLog"
)

// KnownNodeType reports whether the decoded type tag names a supported
// entity kind. An unknown tag is not a malformed id; callers decide
// whether that means "null result" or "unsupported type" (the node query
// returns null, mutations fail).
func KnownNodeType(t NodeType) bool {
	return t == NodeTypeLearningLog
}

// ToGlobalID encodes a type tag and a storage id into an opaque global id.
func ToGlobalID(nodeType NodeType, id string) string {
	raw := string(nodeType) + Separator + id
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// FromGlobalID decodes an opaque global id back into its type tag and
// storage id. It fails with a malformed-id error when the payload is not
// base64, when the separator is absent, or when either side of the
// separator is empty.
func FromGlobalID(globalID string) (NodeType, string, error) {
	if globalID == "" {
		return "", "", errors.NewMalformedIDError()
	}

	raw, err := base64.StdEncoding.DecodeString(globalID)
	if err != nil {
		return "", "", errors.NewMalformedIDError().WithCause(err)
	}

	decoded := string(raw)
	sep := strings.Index(decoded, Separator)
	if sep <= 0 || sep == len(decoded)-1 {
		return "", "", errors.NewMalformedIDError()
	}

	return NodeType(decoded[:sep]), decoded[sep+1:], nil
}
