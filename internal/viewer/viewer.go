// Package viewer holds the contract between the explorer core and the
// external rendering engine: the resource locator derived from a version
// identifier, and the callback that supplies fresh viewer-scope tokens.
package viewer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Scheme prefixes every derived resource locator.
const Scheme = "urn:"

// URN derives the viewer resource locator for a version identifier: the
// identifier base64-encoded with trailing padding stripped, behind the
// scheme marker. The encoding is reversible via VersionID.
func URN(versionID string) string {
	return Scheme + base64.StdEncoding.WithPadding(base64.NoPadding).
		EncodeToString([]byte(versionID))
}

// VersionID recovers the version identifier embedded in a locator.
func VersionID(urn string) (string, error) {
	encoded, ok := strings.CutPrefix(urn, Scheme)
	if !ok {
		return "", fmt.Errorf("viewer: locator missing %q prefix: %q", Scheme, urn)
	}

	decoded, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("viewer: decoding locator: %w", err)
	}

	return string(decoded), nil
}

// TokenProvider supplies the rendering engine with a viewer-scope access
// token and its validity window in seconds. Implementations must validate
// the session on every call and hand out the freshly persisted public
// token — never a copy cached by the core, and never the internal token.
type TokenProvider func(ctx context.Context) (token string, expiresIn int, err error)
