// Package nodeid hands out process-unique node identifiers.
package nodeid

import (
	"strconv"
	"sync/atomic"
)

var counter atomic.Uint64

// New returns an identifier no other call in this process has returned.
func New() string {
	return "n" + strconv.FormatUint(counter.Add(1), 36)
}
