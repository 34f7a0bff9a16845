// Package blkdev exposes a disk image as an array of 1024-byte blocks.
//
// The image is held by a goose disk.Disk, whose blocks are
// disk.BlockSize bytes; each of those holds PERDISKBLK consecutive
// blocks, so block bn lives at byte offset bn*common.BLOCKSZ.
package blkdev

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mit-pdos/go-journal/util"
	"github.com/tchajed/goose/machine/disk"
	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/util/stats"
)

const PERDISKBLK uint64 = disk.BlockSize / common.BLOCKSZ

const (
	readOp int = iota
	writeOp
	zeroOp
	barrierOp
)

type Dev struct {
	d     disk.Disk
	nblk  uint64
	lockf *os.File // holds the image flock; nil for a mem disk
	ops   *stats.Set
}

func diskBlocks(nblk uint64) uint64 {
	return (nblk + PERDISKBLK - 1) / PERDISKBLK
}

func mkDev(d disk.Disk, nblk uint64) *Dev {
	return &Dev{
		d:    d,
		nblk: nblk,
		ops:  stats.NewSet("dev.Read", "dev.Write", "dev.Zero", "dev.Barrier"),
	}
}

func MkMemDev(nblk uint64) *Dev {
	util.DPrintf(1, "MkMemDev: %d blocks\n", nblk)
	return mkDev(disk.NewMemDisk(diskBlocks(nblk)), nblk)
}

// OpenFileDev opens (creating if needed) the image at path and takes an
// exclusive lock on it. If nblk is 0 the block count comes from the
// current size of the image.
func OpenFileDev(path string, nblk uint64) (*Dev, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("image %s is in use: %w", path, err)
	}
	if nblk == 0 {
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("stat image: %w", err)
		}
		nblk = uint64(fi.Size()) / common.BLOCKSZ
		if nblk == 0 {
			f.Close()
			return nil, fmt.Errorf("image %s is empty", path)
		}
	}
	util.DPrintf(1, "OpenFileDev: %s %d blocks\n", path, nblk)
	d, err := disk.NewFileDisk(path, diskBlocks(nblk))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not open file disk: %w", err)
	}
	dev := mkDev(d, nblk)
	dev.lockf = f
	return dev, nil
}

// Size is the number of addressable blocks.
func (dev *Dev) Size() uint64 {
	return dev.nblk
}

// Shrink limits the addressable blocks to the first n.
func (dev *Dev) Shrink(n uint64) {
	if n > dev.nblk {
		panic("Shrink")
	}
	dev.nblk = n
}

func (dev *Dev) valid(bn common.Bnum) bool {
	return uint64(bn) < dev.nblk
}

func split(bn common.Bnum) (uint64, uint64) {
	off := (uint64(bn) % PERDISKBLK) * common.BLOCKSZ
	return uint64(bn) / PERDISKBLK, off
}

// Read returns a copy of block bn, or false if bn is not on the device.
func (dev *Dev) Read(bn common.Bnum) ([]byte, bool) {
	if !dev.valid(bn) {
		util.DPrintf(1, "Read: bad block %d\n", bn)
		return nil, false
	}
	defer dev.ops.Op(readOp).Record(time.Now())
	a, off := split(bn)
	b := dev.d.Read(a)
	return util.CloneByteSlice(b[off : off+common.BLOCKSZ]), true
}

func (dev *Dev) overwrite(bn common.Bnum, data []byte) {
	a, off := split(bn)
	b := dev.d.Read(a)
	blk := b[off : off+common.BLOCKSZ]
	n := copy(blk, data)
	for i := n; i < len(blk); i++ {
		blk[i] = 0
	}
	dev.d.Write(a, b)
}

// Write stores data in block bn; data shorter than a block is padded
// with zeros.
func (dev *Dev) Write(bn common.Bnum, data []byte) bool {
	if !dev.valid(bn) || uint64(len(data)) > common.BLOCKSZ {
		util.DPrintf(1, "Write: bad block %d len %d\n", bn, len(data))
		return false
	}
	defer dev.ops.Op(writeOp).Record(time.Now())
	util.DPrintf(5, "Write: block %d\n", bn)
	dev.overwrite(bn, data)
	return true
}

// Zero scrubs block bn.
func (dev *Dev) Zero(bn common.Bnum) bool {
	if !dev.valid(bn) {
		util.DPrintf(1, "Zero: bad block %d\n", bn)
		return false
	}
	defer dev.ops.Op(zeroOp).Record(time.Now())
	util.DPrintf(5, "Zero: block %d\n", bn)
	dev.overwrite(bn, nil)
	return true
}

func (dev *Dev) Barrier() {
	defer dev.ops.Op(barrierOp).Record(time.Now())
	dev.d.Barrier()
}

func (dev *Dev) Close() {
	dev.Barrier()
	dev.d.Close()
	if dev.lockf != nil {
		unix.Flock(int(dev.lockf.Fd()), unix.LOCK_UN)
		dev.lockf.Close()
		dev.lockf = nil
	}
}

func (dev *Dev) WriteStats(w io.Writer) {
	dev.ops.WriteTable(w)
}

func (dev *Dev) ResetStats() {
	dev.ops.Reset()
}
