//go:build !windows

package fsys

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

func ownerOf(fi os.FileInfo) (*Owner, error) {
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, errOwnerUnavailable
	}
	u, err := user.LookupId(strconv.FormatUint(uint64(stat.Uid), 10))
	if err != nil {
		return &Owner{}, nil //nolint:nilerr // best-effort; missing /etc/passwd entry is not fatal
	}
	groupName := ""
	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(stat.Gid), 10)); err == nil {
		groupName = g.Name
	}
	return &Owner{User: u.Username, Group: groupName}, nil
}
