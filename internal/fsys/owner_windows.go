//go:build windows

package fsys

import "os"

// ownerOf is unsupported on Windows: ownership is ACL-based rather than a
// simple uid/gid pair, and the Owner model has no ACL representation.
func ownerOf(fi os.FileInfo) (*Owner, error) {
	return nil, errOwnerUnavailable
}
