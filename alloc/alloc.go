package alloc

import (
	"fmt"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
)

const (
	FREE byte = '0'
	USED byte = '1'
)

// Alloc hands out numbers in [0, len) using an ASCII bitmap that is
// stored in one block and written back after every change. Numbers
// below reserved are always used and are never allocated or freed.
type Alloc struct {
	dev      *blkdev.Dev
	blkno    common.Bnum
	name     string
	bitmap   []byte
	reserved uint64
	nfree    uint64
}

func checkLen(n uint64, reserved uint64) {
	if n > common.BLOCKSZ || reserved > n {
		panic("alloc: bad bitmap size")
	}
}

// MkAlloc makes a fresh bitmap with only the reserved numbers in use.
// It is not persisted until Flush.
func MkAlloc(dev *blkdev.Dev, blkno common.Bnum, name string, n uint64,
	reserved uint64) *Alloc {
	checkLen(n, reserved)
	a := &Alloc{
		dev:      dev,
		blkno:    blkno,
		name:     name,
		bitmap:   make([]byte, n),
		reserved: reserved,
	}
	for i := range a.bitmap {
		if uint64(i) < reserved {
			a.bitmap[i] = USED
		} else {
			a.bitmap[i] = FREE
		}
	}
	a.nfree = n - reserved
	return a
}

// Load reads the bitmap from blkno and recounts the free numbers.
func Load(dev *blkdev.Dev, blkno common.Bnum, name string, n uint64,
	reserved uint64) (*Alloc, error) {
	checkLen(n, reserved)
	blk, ok := dev.Read(blkno)
	if !ok {
		return nil, fmt.Errorf("%s bitmap: cannot read block %d", name, blkno)
	}
	a := &Alloc{
		dev:      dev,
		blkno:    blkno,
		name:     name,
		bitmap:   blk[:n],
		reserved: reserved,
	}
	for i, c := range a.bitmap {
		if c != FREE && c != USED {
			return nil, fmt.Errorf("%s bitmap: bad flag %q at %d", name, c, i)
		}
		if uint64(i) < reserved && c != USED {
			return nil, fmt.Errorf("%s bitmap: reserved %d is free", name, i)
		}
	}
	a.nfree = a.CountFree()
	util.DPrintf(1, "Load %s bitmap: %d of %d free\n", name, a.nfree, n)
	return a, nil
}

func (a *Alloc) Len() uint64 {
	return uint64(len(a.bitmap))
}

// NFree is the running count of free numbers.
func (a *Alloc) NFree() uint64 {
	return a.nfree
}

// CountFree scans the bitmap for free numbers.
func (a *Alloc) CountFree() uint64 {
	var n uint64
	for _, c := range a.bitmap {
		if c == FREE {
			n++
		}
	}
	return n
}

func (a *Alloc) IsUsed(num uint64) bool {
	return num < a.Len() && a.bitmap[num] == USED
}

func (a *Alloc) Flush() bool {
	return a.dev.Write(a.blkno, a.bitmap)
}

// AllocNum returns the lowest free number, or false if none is left.
func (a *Alloc) AllocNum() (uint64, bool) {
	if a.nfree == 0 {
		util.DPrintf(5, "AllocNum %s: none free\n", a.name)
		return 0, false
	}
	for num := a.reserved; num < a.Len(); num++ {
		if a.bitmap[num] == FREE {
			a.bitmap[num] = USED
			a.nfree--
			a.Flush()
			util.DPrintf(5, "AllocNum %s -> %d\n", a.name, num)
			return num, true
		}
	}
	panic("AllocNum: free count does not match bitmap")
}

// FreeNum releases num. Reserved, out-of-range and already free
// numbers are ignored.
func (a *Alloc) FreeNum(num uint64) {
	if num < a.reserved || num >= a.Len() || a.bitmap[num] == FREE {
		util.DPrintf(5, "FreeNum %s: ignore %d\n", a.name, num)
		return
	}
	a.bitmap[num] = FREE
	a.nfree++
	a.Flush()
	util.DPrintf(5, "FreeNum %s %d\n", a.name, num)
}
