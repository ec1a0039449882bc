// Package pathutil provides path matching for slash-separated archive paths.
package pathutil

import "strings"

// IsPrefixOf reports whether name begins with prefix.
//
// With boundary false this is a raw byte-prefix test, so "dir" matches
// "dir2/x". With boundary true the match must end at a path boundary: prefix
// equals name, prefix ends in "/", or the next byte of name is "/". A
// trailing "/" on either side is ignored for equality, so "dir" and "dir/"
// name the same entry.
func IsPrefixOf(prefix, name string, boundary bool) bool {
	if !strings.HasPrefix(name, prefix) {
		return boundary && prefix != "" && strings.TrimSuffix(prefix, "/") == name
	}
	if !boundary || len(name) == len(prefix) || prefix == "" {
		return true
	}
	return strings.HasSuffix(prefix, "/") || name[len(prefix)] == '/'
}

// SameEntry reports whether a and b name the same entry, ignoring a
// single trailing "/".
func SameEntry(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// DirPrefix normalizes a directory path to end in exactly one "/".
// The archive root ("", ".", "/") has the empty prefix, which matches all.
func DirPrefix(name string) string {
	name = strings.TrimRight(name, "/")
	if name == "" || name == "." {
		return ""
	}
	return name + "/"
}

// IsRoot reports whether name denotes the archive root.
func IsRoot(name string) bool {
	return DirPrefix(name) == ""
}

// Child returns the part of name below prefix and whether it is a direct
// child: non-empty, not just "/", and containing no "/" except as its final
// byte. name must begin with prefix.
func Child(name, prefix string) (rel string, ok bool) {
	rel = strings.TrimPrefix(name, prefix)
	if rel == "" || rel == "/" {
		return rel, false
	}
	if idx := strings.IndexByte(rel, '/'); idx >= 0 && idx != len(rel)-1 {
		return rel, false
	}
	return rel, true
}

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
