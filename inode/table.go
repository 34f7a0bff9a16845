package inode

import (
	"fmt"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
)

// Table mirrors the on-disk inode table block. Every change is
// followed by Flush, which rewrites the whole block.
type Table struct {
	dev     *blkdev.Dev
	maxbnum common.Bnum
	inodes  []*Inode
}

func checkSize(ninode uint64) {
	if ninode*common.INODESZ > common.BLOCKSZ {
		panic("inode table does not fit in a block")
	}
}

// MkTable makes a table with every inode free.
func MkTable(dev *blkdev.Dev, ninode uint64, maxbnum common.Bnum) *Table {
	checkSize(ninode)
	t := &Table{dev: dev, maxbnum: maxbnum, inodes: make([]*Inode, ninode)}
	for i := range t.inodes {
		t.inodes[i] = &Inode{Inum: common.Inum(i)}
	}
	return t
}

func LoadTable(dev *blkdev.Dev, ninode uint64, maxbnum common.Bnum) (*Table, error) {
	checkSize(ninode)
	blk, ok := dev.Read(common.INODETABLE)
	if !ok {
		return nil, fmt.Errorf("inode table: cannot read block %d", common.INODETABLE)
	}
	t := &Table{dev: dev, maxbnum: maxbnum, inodes: make([]*Inode, ninode)}
	for i := range t.inodes {
		off := uint64(i) * common.INODESZ
		ip, ok := Decode(blk[off:off+common.INODESZ], common.Inum(i))
		if !ok {
			return nil, fmt.Errorf("inode %d: malformed record %q", i,
				blk[off:off+common.INODESZ])
		}
		for _, bn := range ip.Blks {
			if bn != common.NULLBNUM && (bn < common.NRESERVEDBLK || bn >= maxbnum) {
				return nil, fmt.Errorf("inode %d: bad block pointer %d", i, bn)
			}
		}
		t.inodes[i] = ip
	}
	return t, nil
}

func (t *Table) NInode() uint64 {
	return uint64(len(t.inodes))
}

func (t *Table) Get(inum common.Inum) *Inode {
	if uint64(inum) >= t.NInode() {
		panic("GetInode")
	}
	return t.inodes[inum]
}

func (t *Table) Encode() []byte {
	blk := make([]byte, 0, common.BLOCKSZ)
	for _, ip := range t.inodes {
		blk = append(blk, ip.Encode()...)
	}
	return blk
}

func (t *Table) Flush() bool {
	util.DPrintf(10, "Flush inode table\n")
	return t.dev.Write(common.INODETABLE, t.Encode())
}

// Init types inum as kind with no blocks and persists the table.
func (t *Table) Init(inum common.Inum, kind common.Kind) *Inode {
	ip := t.Get(inum)
	ip.Kind = kind
	ip.Blks = [common.NBLKINO]common.Bnum{}
	util.DPrintf(1, "Init inode %v\n", ip)
	t.Flush()
	return ip
}

// SetBlk stores bn in pointer slot i of ip and persists the table.
func (t *Table) SetBlk(ip *Inode, i uint64, bn common.Bnum) {
	if bn != common.NULLBNUM && (bn < common.NRESERVEDBLK || bn >= t.maxbnum) {
		panic("SetBlk")
	}
	ip.Blks[i] = bn
	util.DPrintf(5, "SetBlk %v\n", ip)
	t.Flush()
}

// Clear marks inum free and persists the table.
func (t *Table) Clear(inum common.Inum) {
	ip := t.Get(inum)
	ip.Kind = common.KFREE
	ip.Blks = [common.NBLKINO]common.Bnum{}
	t.Flush()
}
