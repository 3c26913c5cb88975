// Package textutil provides file-name sanitization shared by the bookmark,
// scan marker, clip and replay naming code.
package textutil
