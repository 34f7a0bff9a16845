package dir

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-sfs/common"
)

const (
	USED   byte = '1'
	UNUSED byte = '0'

	INUMSZ int = 3 // digits
)

type DirEnt struct {
	Used bool
	Name string // <= common.MAXNAMELEN
	Inum common.Inum
}

// ValidName accepts 1 to common.MAXNAMELEN bytes without a NUL.
func ValidName(name string) common.Stat {
	if len(name) == 0 {
		return common.SFSERR_USAGE
	}
	if uint64(len(name)) > common.MAXNAMELEN {
		return common.SFSERR_INVAL
	}
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return common.SFSERR_INVAL
		}
	}
	return common.SFS_OK
}

// Caller must ensure de.Name fits
func encodeDirEnt(de *DirEnt) []byte {
	enc := marshal.NewEnc(common.DIRENTSZ)
	if de.Used {
		enc.PutBytes([]byte{USED})
	} else {
		enc.PutBytes([]byte{UNUSED})
	}
	name := make([]byte, common.MAXNAMELEN)
	copy(name, de.Name)
	enc.PutBytes(name)
	enc.PutBytes(common.Digits(uint64(de.Inum), INUMSZ))
	return enc.Finish()
}

func decodeDirEnt(d []byte) (*DirEnt, bool) {
	de := &DirEnt{}
	dec := marshal.NewDec(d)
	de.Used = dec.GetBytes(1)[0] == USED
	name := dec.GetBytes(common.MAXNAMELEN)
	l := 0
	for l < len(name) && name[l] != 0 {
		l++
	}
	de.Name = string(name[:l])
	inum, ok := common.GetDigits(dec.GetBytes(uint64(INUMSZ)))
	if de.Used && !ok {
		return nil, false
	}
	de.Inum = common.Inum(inum)
	return de, true
}

func decodeDirBlk(blk []byte) ([]*DirEnt, bool) {
	ents := make([]*DirEnt, common.NDIRENTBLK)
	for i := range ents {
		off := uint64(i) * common.DIRENTSZ
		de, ok := decodeDirEnt(blk[off : off+common.DIRENTSZ])
		if !ok {
			return nil, false
		}
		ents[i] = de
	}
	return ents, true
}

func encodeDirBlk(ents []*DirEnt) []byte {
	blk := make([]byte, 0, common.BLOCKSZ)
	for _, de := range ents {
		blk = append(blk, encodeDirEnt(de)...)
	}
	return blk
}

func isEmpty(ents []*DirEnt) bool {
	for _, de := range ents {
		if de.Used {
			return false
		}
	}
	return true
}
