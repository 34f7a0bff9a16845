// Package file stores file contents in the (at most three) data blocks
// named by a file inode.
package file

import (
	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/fstate"
	"github.com/mit-pdos/go-sfs/inode"
)

func checkFile(ip *inode.Inode, who string) {
	if !ip.IsFile() {
		panic(who + ": not a file")
	}
}

// Read returns the contents of ip: each data block in pointer order,
// up to its first NUL byte.
func Read(fs *fstate.FsState, ip *inode.Inode) ([]byte, common.Stat) {
	checkFile(ip, "file.Read")
	var data = make([]byte, 0)
	for _, bn := range ip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		blk, ok := fs.ReadBlock(bn)
		if !ok {
			return nil, common.SFSERR_IO
		}
		n := 0
		for n < len(blk) && blk[n] != 0 {
			n++
		}
		data = append(data, blk[:n]...)
	}
	util.DPrintf(5, "file.Read # %d: %d bytes\n", ip.Inum, len(data))
	return data, common.SFS_OK
}

// Free releases the data blocks of ip and then ip itself.
func Free(fs *fstate.FsState, ip *inode.Inode) {
	checkFile(ip, "file.Free")
	util.DPrintf(1, "file.Free %v\n", ip)
	for _, bn := range ip.Blks {
		if bn == common.NULLBNUM {
			continue
		}
		fs.FreeBlock(bn)
	}
	fs.FreeInode(ip.Inum)
}
