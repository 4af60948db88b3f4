//go:build darwin

package local

import (
	"io/fs"
	"syscall"
	"time"

	"github.com/filicious/filicious"
)

// fillSysStat extracts owner, group and access time from the raw stat.
func fillSysStat(info fs.FileInfo, st *filicious.Stat) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	st.UID = int(sys.Uid)
	st.GID = int(sys.Gid)
	st.ATime = time.Unix(sys.Atimespec.Sec, sys.Atimespec.Nsec)
}

// creationTime reports the file birth time, which Darwin tracks natively.
func creationTime(info fs.FileInfo) (time.Time, bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sys.Birthtimespec.Sec, sys.Birthtimespec.Nsec), true
}
