package file

import (
	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/fstate"
	"github.com/mit-pdos/go-sfs/inode"
)

// Writer appends contents to a freshly created file, one data block
// per Append call.
type Writer struct {
	fs *fstate.FsState
	ip *inode.Inode
	n  uint64 // bytes written
}

func MkWriter(fs *fstate.FsState, ip *inode.Inode) *Writer {
	checkFile(ip, "file.MkWriter")
	return &Writer{fs: fs, ip: ip}
}

func (w *Writer) Size() uint64 {
	return w.n
}

// Full reports whether every block pointer of the file is in use.
func (w *Writer) Full() bool {
	_, ok := w.ip.FreeSlot()
	return !ok
}

// Append stores up to one block of data in a new data block. It returns
// the number of bytes stored; bytes past common.BLOCKSZ are dropped.
// SFSERR_FBIG means the file already has all its blocks and
// SFSERR_NOSPC that no block was free; blocks written earlier stay.
func (w *Writer) Append(data []byte) (uint64, common.Stat) {
	if len(data) == 0 {
		return 0, common.SFS_OK
	}
	slot, ok := w.ip.FreeSlot()
	if !ok {
		return 0, common.SFSERR_FBIG
	}
	bn, ok := w.fs.AllocBlock()
	if !ok {
		util.DPrintf(1, "Append # %d: disk full\n", w.ip.Inum)
		return 0, common.SFSERR_NOSPC
	}
	count := util.Min(uint64(len(data)), common.BLOCKSZ)
	w.fs.Inodes.SetBlk(w.ip, slot, bn)
	if !w.fs.WriteBlock(bn, data[:count]) {
		return 0, common.SFSERR_IO
	}
	w.n += count
	util.DPrintf(5, "Append # %d: blk %d cnt %d\n", w.ip.Inum, bn, count)
	return count, common.SFS_OK
}
