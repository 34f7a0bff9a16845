package super

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-sfs/common"
)

const (
	NBLOCKDIGITS = 3
	NINODEDIGITS = 3

	MINBLOCKS uint64 = uint64(common.NRESERVEDBLK) + 1
	MININODES uint64 = 2
)

// FsSuper is the superblock: the block and inode counts fixed at mkfs.
type FsSuper struct {
	NBlock uint64
	NInode uint64
}

func DefaultSuper() *FsSuper {
	return &FsSuper{NBlock: 100, NInode: 127}
}

func MkFsSuper(nblock uint64, ninode uint64) (*FsSuper, error) {
	sup := &FsSuper{NBlock: nblock, NInode: ninode}
	if err := sup.Validate(); err != nil {
		return nil, err
	}
	return sup, nil
}

func (sup *FsSuper) Validate() error {
	if sup.NBlock < MINBLOCKS || sup.NBlock > common.MAXBLOCKS {
		return fmt.Errorf("block count %d not in [%d, %d]",
			sup.NBlock, MINBLOCKS, common.MAXBLOCKS)
	}
	if sup.NInode < MININODES || sup.NInode > common.MAXINODES {
		return fmt.Errorf("inode count %d not in [%d, %d]",
			sup.NInode, MININODES, common.MAXINODES)
	}
	return nil
}

func (sup *FsSuper) String() string {
	return fmt.Sprintf("blocks %d inodes %d", sup.NBlock, sup.NInode)
}

// MaxBnum is one past the last block number.
func (sup *FsSuper) MaxBnum() common.Bnum {
	return common.Bnum(sup.NBlock)
}

func (sup *FsSuper) Encode() []byte {
	enc := marshal.NewEnc(NBLOCKDIGITS + NINODEDIGITS)
	enc.PutBytes(common.Digits(sup.NBlock, NBLOCKDIGITS))
	enc.PutBytes(common.Digits(sup.NInode, NINODEDIGITS))
	return enc.Finish()
}

func Decode(blk []byte) (*FsSuper, error) {
	if uint64(len(blk)) < NBLOCKDIGITS+NINODEDIGITS {
		return nil, fmt.Errorf("short superblock")
	}
	dec := marshal.NewDec(blk)
	nblock, ok := common.GetDigits(dec.GetBytes(NBLOCKDIGITS))
	if !ok {
		return nil, fmt.Errorf("superblock: bad block count %q", blk[:NBLOCKDIGITS])
	}
	ninode, ok := common.GetDigits(dec.GetBytes(NINODEDIGITS))
	if !ok {
		return nil, fmt.Errorf("superblock: bad inode count %q",
			blk[NBLOCKDIGITS:NBLOCKDIGITS+NINODEDIGITS])
	}
	sup := &FsSuper{NBlock: nblock, NInode: ninode}
	if err := sup.Validate(); err != nil {
		return nil, fmt.Errorf("superblock: %w", err)
	}
	return sup, nil
}
