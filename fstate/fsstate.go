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

const NRESERVEDINODE uint64 = uint64(common.ROOTINUM) + 1

// FsState is the metadata of a mounted image. It is loaded once and
// every change is written through to the device before returning.
type FsState struct {
	Dev    *blkdev.Dev
	Super  *super.FsSuper
	Balloc *alloc.Alloc
	Ialloc *alloc.Alloc
	Inodes *inode.Table
}

// Mount loads the superblock, both bitmaps and the inode table.
func Mount(dev *blkdev.Dev) (*FsState, error) {
	blk, ok := dev.Read(common.SUPERBLK)
	if !ok {
		return nil, fmt.Errorf("cannot read superblock")
	}
	sup, err := super.Decode(blk)
	if err != nil {
		return nil, err
	}
	if sup.NBlock > dev.Size() {
		return nil, fmt.Errorf("superblock claims %d blocks, image has %d",
			sup.NBlock, dev.Size())
	}
	dev.Shrink(sup.NBlock)
	util.DPrintf(1, "Mount: %v\n", sup)

	balloc, err := alloc.Load(dev, common.BLOCKBITMAP, "block", sup.NBlock,
		uint64(common.NRESERVEDBLK))
	if err != nil {
		return nil, err
	}
	ialloc, err := alloc.Load(dev, common.INODEBITMAP, "inode", sup.NInode,
		NRESERVEDINODE)
	if err != nil {
		return nil, err
	}
	inodes, err := inode.LoadTable(dev, sup.NInode, sup.MaxBnum())
	if err != nil {
		return nil, err
	}
	if !inodes.Get(common.ROOTINUM).IsDir() {
		return nil, fmt.Errorf("root inode is not a directory")
	}
	return &FsState{
		Dev:    dev,
		Super:  sup,
		Balloc: balloc,
		Ialloc: ialloc,
		Inodes: inodes,
	}, nil
}

func (fs *FsState) Close() {
	util.DPrintf(1, "Close: %d blocks %d inodes free\n",
		fs.Balloc.NFree(), fs.Ialloc.NFree())
	fs.Dev.Close()
}

func (fs *FsState) GetInode(inum common.Inum) *inode.Inode {
	return fs.Inodes.Get(inum)
}

func (fs *FsState) ReadBlock(bn common.Bnum) ([]byte, bool) {
	return fs.Dev.Read(bn)
}

func (fs *FsState) WriteBlock(bn common.Bnum, data []byte) bool {
	return fs.Dev.Write(bn, data)
}

// AllocBlock returns a zeroed free block.
func (fs *FsState) AllocBlock() (common.Bnum, bool) {
	n, ok := fs.Balloc.AllocNum()
	if !ok {
		return common.NULLBNUM, false
	}
	bn := common.Bnum(n)
	util.DPrintf(5, "alloc block %d\n", bn)
	if !fs.Dev.Zero(bn) {
		fs.Balloc.FreeNum(n)
		return common.NULLBNUM, false
	}
	return bn, true
}

func (fs *FsState) FreeBlock(bn common.Bnum) {
	util.DPrintf(5, "free block %d\n", bn)
	fs.Balloc.FreeNum(uint64(bn))
}

// AllocInode takes the lowest free inode and types it as kind with no
// blocks.
func (fs *FsState) AllocInode(kind common.Kind) (*inode.Inode, bool) {
	n, ok := fs.Ialloc.AllocNum()
	if !ok {
		return nil, false
	}
	util.DPrintf(5, "alloc inode %d\n", n)
	return fs.Inodes.Init(common.Inum(n), kind), true
}

func (fs *FsState) FreeInode(inum common.Inum) {
	util.DPrintf(5, "free inode %d\n", inum)
	fs.Ialloc.FreeNum(uint64(inum))
	fs.Inodes.Clear(inum)
}
