//go:build !linux && !darwin

package local

import (
	"io/fs"
	"time"

	"github.com/filicious/filicious"
)

func fillSysStat(info fs.FileInfo, st *filicious.Stat) {}

func creationTime(info fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
