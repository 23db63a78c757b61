// Package ziptype holds the types shared by the reader, the writer, and the
// public memzip package.
package ziptype
