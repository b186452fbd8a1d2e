package main

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeRemotePath returns a rooted, NFC-normalized remote path. Names on
// the service compare byte-for-byte, and terminals on macOS type NFD.
func normalizeRemotePath(p string) string {
	p = norm.NFC.String(strings.TrimSpace(p))

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return p
}

// splitParentAndName splits a rooted path into its parent path and final
// name. "/a/b" gives ("/a", "b"); "/b" gives ("/", "b").
func splitParentAndName(p string) (string, string) {
	p = strings.TrimSuffix(p, "/")
	idx := strings.LastIndex(p, "/")

	if idx <= 0 {
		return "/", p[idx+1:]
	}

	return p[:idx], p[idx+1:]
}

// normalizeName NFC-normalizes a single item name.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}
