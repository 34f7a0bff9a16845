package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-sfs/common"
)

const (
	KINDSZ uint64 = 2
	BNUMSZ int    = 2 // digits per block pointer
)

var kindTags = map[common.Kind][]byte{
	common.KFILE: []byte("FI"),
	common.KDIR:  []byte("DI"),
}

type Inode struct {
	Inum common.Inum
	Kind common.Kind
	Blks [common.NBLKINO]common.Bnum
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d %v %v", ip.Inum, ip.Kind, ip.Blks)
}

func (ip *Inode) IsDir() bool {
	return ip.Kind == common.KDIR
}

func (ip *Inode) IsFile() bool {
	return ip.Kind == common.KFILE
}

// NBlocks counts the pointers in use.
func (ip *Inode) NBlocks() uint64 {
	var n uint64
	for _, bn := range ip.Blks {
		if bn != common.NULLBNUM {
			n++
		}
	}
	return n
}

// FreeSlot returns the first unset pointer slot.
func (ip *Inode) FreeSlot() (uint64, bool) {
	for i, bn := range ip.Blks {
		if bn == common.NULLBNUM {
			return uint64(i), true
		}
	}
	return 0, false
}

// Encode produces the 8-byte record; free inodes encode as zeros.
func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	if ip.Kind == common.KFREE {
		return enc.Finish()
	}
	enc.PutBytes(kindTags[ip.Kind])
	for _, bn := range ip.Blks {
		enc.PutBytes(common.Digits(uint64(bn), BNUMSZ))
	}
	return enc.Finish()
}

func decodeKind(tag []byte) common.Kind {
	for k, t := range kindTags {
		if tag[0] == t[0] && tag[1] == t[1] {
			return k
		}
	}
	return common.KFREE
}

// Decode parses a record. Unknown type tags decode as a free inode;
// a typed inode with a malformed pointer field returns false.
func Decode(d []byte, inum common.Inum) (*Inode, bool) {
	ip := &Inode{Inum: inum}
	dec := marshal.NewDec(d)
	ip.Kind = decodeKind(dec.GetBytes(KINDSZ))
	if ip.Kind == common.KFREE {
		return ip, true
	}
	for i := range ip.Blks {
		bn, ok := common.GetDigits(dec.GetBytes(uint64(BNUMSZ)))
		if !ok {
			return nil, false
		}
		ip.Blks[i] = common.Bnum(bn)
	}
	return ip, true
}
