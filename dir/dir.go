// Package dir implements directories: up to three blocks of four
// fixed-size entries each, named by a directory inode.
package dir

import (
	"github.com/goose-lang/std"
	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/file"
	"github.com/mit-pdos/go-sfs/fstate"
	"github.com/mit-pdos/go-sfs/inode"
)

func checkDir(dip *inode.Inode, who string) {
	if !dip.IsDir() {
		panic(who + ": not a directory")
	}
}

func readDirBlk(fs *fstate.FsState, bn common.Bnum) ([]*DirEnt, bool) {
	blk, ok := fs.ReadBlock(bn)
	if !ok {
		return nil, false
	}
	return decodeDirBlk(blk)
}

func writeDirBlk(fs *fstate.FsState, bn common.Bnum, ents []*DirEnt) bool {
	return fs.WriteBlock(bn, encodeDirBlk(ents))
}

func sameName(de *DirEnt, name string) bool {
	return std.BytesEqual([]byte(de.Name), []byte(name))
}

// LookupName finds name in dip. kind restricts the match to entries
// naming an inode of that kind; common.KFREE matches any kind.
func LookupName(fs *fstate.FsState, dip *inode.Inode, name string,
	kind common.Kind) (*inode.Inode, common.Stat) {
	checkDir(dip, "LookupName")
	for _, bn := range dip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		ents, ok := readDirBlk(fs, bn)
		if !ok {
			return nil, common.SFSERR_IO
		}
		for _, de := range ents {
			if !de.Used {
				continue
			}
			ip := fs.GetInode(de.Inum)
			util.DPrintf(10, "LookupName # %d: %q -> %v\n", dip.Inum, de.Name, ip)
			if kind != common.KFREE && ip.Kind != kind {
				continue
			}
			if sameName(de, name) {
				return ip, common.SFS_OK
			}
		}
	}
	return nil, common.SFSERR_NOENT
}

// AddName makes a new inode of the given kind and enters it in dip
// under name. It uses the first unused entry; if every block is full
// it grows dip by one block. Nothing is left allocated on failure.
func AddName(fs *fstate.FsState, dip *inode.Inode, name string,
	kind common.Kind) (*inode.Inode, common.Stat) {
	checkDir(dip, "AddName")
	if st := ValidName(name); st != common.SFS_OK {
		return nil, st
	}

	var haveEnt, haveSlot bool
	var entSlot, entOff, growSlot uint64
	for i, bn := range dip.Blks {
		if bn == common.NULLBNUM {
			if !haveSlot {
				haveSlot = true
				growSlot = uint64(i)
			}
			continue
		}
		ents, ok := readDirBlk(fs, bn)
		if !ok {
			return nil, common.SFSERR_IO
		}
		for j, de := range ents {
			if !de.Used {
				if !haveEnt {
					haveEnt = true
					entSlot = uint64(i)
					entOff = uint64(j)
				}
				continue
			}
			if sameName(de, name) {
				return nil, common.SFSERR_EXIST
			}
		}
	}

	var newbn = common.NULLBNUM
	if !haveEnt {
		if !haveSlot {
			return nil, common.SFSERR_DIRFULL
		}
		bn, ok := fs.AllocBlock()
		if !ok {
			return nil, common.SFSERR_NOSPC
		}
		newbn = bn
		entSlot = growSlot
		entOff = 0
	}

	ip, ok := fs.AllocInode(kind)
	if !ok {
		undoAdd(fs, dip, nil, entSlot, newbn)
		return nil, common.SFSERR_NOINODE
	}
	if newbn != common.NULLBNUM {
		fs.Inodes.SetBlk(dip, entSlot, newbn)
	}

	bn := dip.Blks[entSlot]
	ents, ok := readDirBlk(fs, bn)
	if !ok {
		panic("AddName")
	}
	ents[entOff] = &DirEnt{Used: true, Name: name, Inum: ip.Inum}
	util.DPrintf(5, "AddName # %d: %q -> # %d blk %d ent %d\n",
		dip.Inum, name, ip.Inum, bn, entOff)
	if !writeDirBlk(fs, bn, ents) {
		undoAdd(fs, dip, ip, entSlot, newbn)
		return nil, common.SFSERR_IO
	}
	return ip, common.SFS_OK
}

// undoAdd releases what a failed AddName took: the child inode, if
// any, and the block newbn grown into pointer slot i of dip.
func undoAdd(fs *fstate.FsState, dip *inode.Inode, ip *inode.Inode, i uint64,
	newbn common.Bnum) {
	if ip != nil {
		fs.FreeInode(ip.Inum)
	}
	if newbn == common.NULLBNUM {
		return
	}
	if dip.Blks[i] == newbn {
		fs.Inodes.SetBlk(dip, i, common.NULLBNUM)
	}
	fs.FreeBlock(newbn)
}

func freeInode(fs *fstate.FsState, ip *inode.Inode) {
	switch ip.Kind {
	case common.KFILE:
		file.Free(fs, ip)
	case common.KDIR:
		Free(fs, ip)
	default:
		panic("entry names a free inode")
	}
}

// RemName removes name from dip and frees what it names, recursively
// for a directory. A block left with no used entries is given back.
func RemName(fs *fstate.FsState, dip *inode.Inode, name string) common.Stat {
	checkDir(dip, "RemName")
	for i, bn := range dip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		ents, ok := readDirBlk(fs, bn)
		if !ok {
			return common.SFSERR_IO
		}
		for _, de := range ents {
			if !de.Used || !sameName(de, name) {
				continue
			}
			util.DPrintf(5, "RemName # %d: %q # %d\n", dip.Inum, name, de.Inum)
			freeInode(fs, fs.GetInode(de.Inum))
			de.Used = false
			if !writeDirBlk(fs, bn, ents) {
				return common.SFSERR_IO
			}
			if isEmpty(ents) {
				fs.FreeBlock(bn)
				fs.Inodes.SetBlk(dip, uint64(i), common.NULLBNUM)
			}
			return common.SFS_OK
		}
	}
	return common.SFSERR_NOENT
}

// Free deletes dip and everything below it. Children are freed before
// the block holding their entries, and all blocks before dip itself.
func Free(fs *fstate.FsState, dip *inode.Inode) {
	checkDir(dip, "dir.Free")
	if dip.Inum == common.ROOTINUM {
		panic("dir.Free: root")
	}
	util.DPrintf(1, "dir.Free %v\n", dip)
	for _, bn := range dip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		ents, ok := readDirBlk(fs, bn)
		if !ok {
			panic("dir.Free: read")
		}
		for _, de := range ents {
			if !de.Used {
				continue
			}
			freeInode(fs, fs.GetInode(de.Inum))
			de.Used = false
		}
		writeDirBlk(fs, bn, ents)
		fs.FreeBlock(bn)
	}
	fs.FreeInode(dip.Inum)
}

// Apply calls f on every used entry of dip, in block and entry order.
func Apply(fs *fstate.FsState, dip *inode.Inode,
	f func(de *DirEnt, ip *inode.Inode)) common.Stat {
	checkDir(dip, "Apply")
	for _, bn := range dip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		ents, ok := readDirBlk(fs, bn)
		if !ok {
			return common.SFSERR_IO
		}
		for _, de := range ents {
			if !de.Used {
				continue
			}
			f(de, fs.GetInode(de.Inum))
		}
	}
	return common.SFS_OK
}
