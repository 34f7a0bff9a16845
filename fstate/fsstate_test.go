package fstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/super"
)

func mkfs(t *testing.T) (*blkdev.Dev, *FsState) {
	dev := blkdev.MkMemDev(100)
	fs, err := Mkfs(dev, super.DefaultSuper())
	require.NoError(t, err)
	return dev, fs
}

func TestMkfsLayout(t *testing.T) {
	dev, fs := mkfs(t)
	defer fs.Close()

	blk, _ := dev.Read(common.SUPERBLK)
	assert.Equal(t, "100127", string(blk[:6]))
	assert.Equal(t, byte(0), blk[6])

	blk, _ = dev.Read(common.BLOCKBITMAP)
	assert.Equal(t, "1111"+strings.Repeat("0", 96), string(blk[:100]))

	blk, _ = dev.Read(common.INODEBITMAP)
	assert.Equal(t, "1"+strings.Repeat("0", 126), string(blk[:127]))

	blk, _ = dev.Read(common.INODETABLE)
	assert.Equal(t, "DI000000", string(blk[:8]))
	assert.Equal(t, make([]byte, 8), blk[8:16])

	assert.Equal(t, uint64(96), fs.Balloc.NFree())
	assert.Equal(t, uint64(126), fs.Ialloc.NFree())
}

func TestRemount(t *testing.T) {
	dev, fs := mkfs(t)
	bn, ok := fs.AllocBlock()
	require.True(t, ok)
	ip, ok := fs.AllocInode(common.KFILE)
	require.True(t, ok)
	fs.Inodes.SetBlk(ip, 0, bn)

	fs2, err := Mount(dev)
	require.NoError(t, err)
	assert.Equal(t, uint64(95), fs2.Balloc.NFree())
	assert.Equal(t, uint64(125), fs2.Ialloc.NFree())
	assert.Equal(t, ip, fs2.GetInode(ip.Inum))
}

func TestAllocBlockZeroes(t *testing.T) {
	_, fs := mkfs(t)
	bn, ok := fs.AllocBlock()
	require.True(t, ok)
	assert.Equal(t, common.Bnum(4), bn)
	require.True(t, fs.WriteBlock(bn, []byte("stale")))
	fs.FreeBlock(bn)

	bn2, ok := fs.AllocBlock()
	require.True(t, ok)
	assert.Equal(t, bn, bn2)
	blk, _ := fs.ReadBlock(bn2)
	assert.Equal(t, make([]byte, common.BLOCKSZ), blk)
}

func TestFreeInodeClearsRecord(t *testing.T) {
	_, fs := mkfs(t)
	ip, ok := fs.AllocInode(common.KDIR)
	require.True(t, ok)
	assert.Equal(t, common.Inum(1), ip.Inum)
	fs.FreeInode(ip.Inum)
	assert.Equal(t, common.KFREE, fs.GetInode(1).Kind)
	assert.Equal(t, uint64(126), fs.Ialloc.NFree())

	// root is reserved
	fs.FreeInode(common.ROOTINUM)
	assert.Equal(t, uint64(126), fs.Ialloc.NFree())
}

func TestMountErrors(t *testing.T) {
	dev := blkdev.MkMemDev(100)
	_, err := Mount(dev)
	assert.Error(t, err, "blank image")

	small := blkdev.MkMemDev(40)
	_, err = Mkfs(small, super.DefaultSuper())
	assert.Error(t, err)

	dev, fs := mkfs(t)
	fs.Inodes.Clear(common.ROOTINUM)
	_, err = Mount(dev)
	assert.Error(t, err, "root is not a directory")
}

func TestSmallImage(t *testing.T) {
	dev := blkdev.MkMemDev(100)
	sup, err := super.MkFsSuper(10, 4)
	require.NoError(t, err)
	fs, err := Mkfs(dev, sup)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), dev.Size())
	assert.Equal(t, uint64(6), fs.Balloc.NFree())
	assert.Equal(t, uint64(3), fs.Ialloc.NFree())
}
