//go:build linux

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
	st.ATime = time.Unix(sys.Atim.Sec, sys.Atim.Nsec)
}

// creationTime reports the status-change time. Linux does not expose a
// birth time through Stat_t; ctime is what stat-based callers observe.
func creationTime(info fs.FileInfo) (time.Time, bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec), true
}
