package common

const (
	BLOCKSZ uint64 = 1024

	// fixed block numbers of the metadata
	SUPERBLK     Bnum = 0
	BLOCKBITMAP  Bnum = 1
	INODEBITMAP  Bnum = 2
	INODETABLE   Bnum = 3
	NRESERVEDBLK Bnum = 4

	MAXBLOCKS uint64 = 100 // two-digit block pointers
	MAXINODES uint64 = BLOCKSZ / INODESZ

	INODESZ uint64 = 8 // on-disk size
	NBLKINO uint64 = 3 // # blk pointers in an inode

	DIRENTSZ    uint64 = 256
	NDIRENTBLK  uint64 = BLOCKSZ / DIRENTSZ
	MAXNAMELEN  uint64 = 252
	NDIRENTDIR  uint64 = NBLKINO * NDIRENTBLK
	MAXFILESIZE uint64 = NBLKINO * BLOCKSZ
)

type Bnum uint64

type Inum uint64

// NULLBNUM marks an unset block pointer; block 0 is the superblock
const NULLBNUM Bnum = 0

const ROOTINUM Inum = 0

type Kind uint32

const (
	KFREE Kind = 0
	KFILE Kind = 1
	KDIR  Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KFILE:
		return "FI"
	case KDIR:
		return "DI"
	}
	return "--"
}

// Stat is the outcome of a filesystem operation.
type Stat uint32

const (
	SFS_OK         Stat = 0
	SFSERR_USAGE   Stat = 1
	SFSERR_NOENT   Stat = 2
	SFSERR_EXIST   Stat = 3
	SFSERR_DIRFULL Stat = 4
	SFSERR_NOSPC   Stat = 5
	SFSERR_NOINODE Stat = 6
	SFSERR_FBIG    Stat = 7
	SFSERR_IO      Stat = 8
	SFSERR_INVAL   Stat = 9
)

var statNames = []string{
	"OK",
	"USAGE",
	"NOENT",
	"EXIST",
	"DIRFULL",
	"NOSPC",
	"NOINODE",
	"FBIG",
	"IO",
	"INVAL",
}

func (s Stat) String() string {
	if uint64(s) < uint64(len(statNames)) {
		return statNames[s]
	}
	return "UNKNOWN"
}

// Exhausted reports whether s means some resource ran out.
func (s Stat) Exhausted() bool {
	return s == SFSERR_DIRFULL || s == SFSERR_NOSPC ||
		s == SFSERR_NOINODE || s == SFSERR_FBIG
}
