// Package ident generates client-local temporary identifiers.
//
// A temporary id is attached to every message the moment it exists locally,
// before the server has assigned its own id. It is the reconciliation key used
// to match the server's echo of an optimistic send back to the local copy.
package ident

import "github.com/google/uuid"

const msgPrefix = "tmp_"

// NewMessageID returns a locally-unique temporary message id.
func NewMessageID() string {
	return msgPrefix + uuid.New().String()
}

// IsTemporary reports whether id was produced by NewMessageID.
func IsTemporary(id string) bool {
	return len(id) > len(msgPrefix) && id[:len(msgPrefix)] == msgPrefix
}
