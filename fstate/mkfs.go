package fstate

import (
	"fmt"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/alloc"
	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/inode"
	"github.com/mit-pdos/go-sfs/super"
)

//
// mkfs
//

// Mkfs formats dev with an empty root directory and mounts it.
func Mkfs(dev *blkdev.Dev, sup *super.FsSuper) (*FsState, error) {
	if err := sup.Validate(); err != nil {
		return nil, err
	}
	if sup.NBlock > dev.Size() {
		return nil, fmt.Errorf("mkfs: %d blocks requested, image has %d",
			sup.NBlock, dev.Size())
	}
	util.DPrintf(1, "Mkfs: %v\n", sup)
	for bn := common.Bnum(0); bn < sup.MaxBnum(); bn++ {
		if !dev.Zero(bn) {
			return nil, fmt.Errorf("mkfs: cannot zero block %d", bn)
		}
	}
	if !dev.Write(common.SUPERBLK, sup.Encode()) {
		return nil, fmt.Errorf("mkfs: cannot write superblock")
	}
	balloc := alloc.MkAlloc(dev, common.BLOCKBITMAP, "block", sup.NBlock,
		uint64(common.NRESERVEDBLK))
	ialloc := alloc.MkAlloc(dev, common.INODEBITMAP, "inode", sup.NInode,
		NRESERVEDINODE)
	if !balloc.Flush() || !ialloc.Flush() {
		return nil, fmt.Errorf("mkfs: cannot write bitmaps")
	}
	inodes := inode.MkTable(dev, sup.NInode, sup.MaxBnum())
	inodes.Init(common.ROOTINUM, common.KDIR)
	dev.Barrier()
	return Mount(dev)
}
