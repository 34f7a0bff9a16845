package sfs

import (
	"fmt"
	"time"

	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/dir"
	"github.com/mit-pdos/go-sfs/fstate"
	"github.com/mit-pdos/go-sfs/inode"
)

type checker struct {
	fs       *fstate.FsState
	problems []string
	inodes   map[common.Inum]bool
	blocks   map[common.Bnum]common.Inum
}

func (c *checker) errorf(format string, a ...interface{}) {
	c.problems = append(c.problems, fmt.Sprintf(format, a...))
}

func (c *checker) claim(ip *inode.Inode) {
	for _, bn := range ip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		if owner, ok := c.blocks[bn]; ok {
			c.errorf("block %d used by inode %d and %d", bn, owner, ip.Inum)
			continue
		}
		c.blocks[bn] = ip.Inum
		if !c.fs.Balloc.IsUsed(uint64(bn)) {
			c.errorf("block %d of inode %d is marked free", bn, ip.Inum)
		}
	}
}

func (c *checker) walk(dip *inode.Inode) {
	c.claim(dip)
	names := make(map[string]bool)
	var children []*inode.Inode
	st := dir.Apply(c.fs, dip, func(de *dir.DirEnt, ip *inode.Inode) {
		if names[de.Name] {
			c.errorf("directory %d: duplicate name %q", dip.Inum, de.Name)
		}
		names[de.Name] = true
		if c.inodes[ip.Inum] {
			c.errorf("inode %d reached twice", ip.Inum)
			return
		}
		if !c.fs.Ialloc.IsUsed(uint64(ip.Inum)) {
			c.errorf("inode %d named %q is marked free", ip.Inum, de.Name)
		}
		c.inodes[ip.Inum] = true
		switch ip.Kind {
		case common.KDIR:
			children = append(children, ip)
		case common.KFILE:
			c.claim(ip)
		default:
			c.errorf("entry %q names free inode %d", de.Name, ip.Inum)
		}
	})
	if st != common.SFS_OK {
		c.errorf("directory %d: %v", dip.Inum, st)
	}
	for _, ip := range children {
		c.walk(ip)
	}
}

// Check walks the tree from the root and compares what it reaches
// with both bitmaps. It returns a description of each inconsistency.
func (s *Session) Check() []string {
	defer s.record(checkOp, time.Now())
	c := &checker{
		fs:     s.fs,
		inodes: make(map[common.Inum]bool),
		blocks: make(map[common.Bnum]common.Inum),
	}
	fs := s.fs
	if n := fs.Balloc.CountFree(); n != fs.Balloc.NFree() {
		c.errorf("block bitmap has %d free, counter says %d", n, fs.Balloc.NFree())
	}
	if n := fs.Ialloc.CountFree(); n != fs.Ialloc.NFree() {
		c.errorf("inode bitmap has %d free, counter says %d", n, fs.Ialloc.NFree())
	}
	for bn := uint64(0); bn < uint64(common.NRESERVEDBLK); bn++ {
		if !fs.Balloc.IsUsed(bn) {
			c.errorf("reserved block %d is free", bn)
		}
	}
	root := fs.GetInode(common.ROOTINUM)
	if !root.IsDir() {
		c.errorf("root inode is %v", root.Kind)
		return c.problems
	}
	c.inodes[root.Inum] = true
	c.walk(root)

	for i := fstate.NRESERVEDINODE; i < fs.Ialloc.Len(); i++ {
		if fs.Ialloc.IsUsed(i) && !c.inodes[common.Inum(i)] {
			c.errorf("inode %d is in use but unreachable", i)
		}
	}
	for bn := uint64(common.NRESERVEDBLK); bn < fs.Balloc.Len(); bn++ {
		if _, ok := c.blocks[common.Bnum(bn)]; fs.Balloc.IsUsed(bn) && !ok {
			c.errorf("block %d is in use but unreachable", bn)
		}
	}
	return c.problems
}
