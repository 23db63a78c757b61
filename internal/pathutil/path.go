// Package pathutil provides path manipulation for slash-separated entry names.
package pathutil

import "strings"

// IsDir reports whether name denotes a directory entry.
func IsDir(name string) bool {
	return strings.HasSuffix(name, "/")
}

// DirName returns name with exactly one trailing slash.
func DirName(name string) string {
	if IsDir(name) {
		return name
	}
	return name + "/"
}

// Parent returns the directory entry name containing name, or "" for
// top-level names. A leading slash does not make a parent.
//
//	Parent("a/b/c.txt") == "a/b/"
//	Parent("a/b/")      == "a/"
//	Parent("a.txt")     == ""
func Parent(name string) string {
	name = strings.TrimSuffix(name, "/")
	if i := strings.LastIndex(name, "/"); i > 0 {
		return name[:i+1]
	}
	return ""
}

// Parents returns every ancestor directory of name, outermost first.
func Parents(name string) []string {
	var out []string
	for p := Parent(name); p != ""; p = Parent(p) {
		out = append(out, p)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
