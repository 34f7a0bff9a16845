// Package sfs is a mounted simple filesystem together with the
// session state of its user: the current directory and the path shown
// for it.
package sfs

import (
	"io"
	"time"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/dir"
	"github.com/mit-pdos/go-sfs/file"
	"github.com/mit-pdos/go-sfs/fstate"
	"github.com/mit-pdos/go-sfs/inode"
	"github.com/mit-pdos/go-sfs/super"
	"github.com/mit-pdos/go-sfs/util/stats"
)

const ROOTPATH = "/"

const (
	lsOp int = iota
	cdOp
	rdOp
	mdOp
	createOp
	appendOp
	displayOp
	rmOp
	statsOp
	checkOp
)

var opNames = []string{
	"LS", "CD", "RD", "MD", "CREATE", "APPEND", "DISPLAY", "RM", "STATS", "CHECK",
}

type Session struct {
	fs   *fstate.FsState
	cwd  common.Inum
	path string
	ops  *stats.Set
}

func MkSession(fs *fstate.FsState) *Session {
	return &Session{
		fs:   fs,
		cwd:  common.ROOTINUM,
		path: ROOTPATH,
		ops:  stats.NewSet(opNames...),
	}
}

// Mount mounts the image on dev.
func Mount(dev *blkdev.Dev) (*Session, error) {
	fs, err := fstate.Mount(dev)
	if err != nil {
		return nil, err
	}
	return MkSession(fs), nil
}

// Mkfs formats dev and mounts it.
func Mkfs(dev *blkdev.Dev, sup *super.FsSuper) (*Session, error) {
	fs, err := fstate.Mkfs(dev, sup)
	if err != nil {
		return nil, err
	}
	return MkSession(fs), nil
}

func (s *Session) Close() {
	s.fs.Close()
}

func (s *Session) FsState() *fstate.FsState {
	return s.fs
}

// Path is the display path of the current directory.
func (s *Session) Path() string {
	return s.path
}

func (s *Session) Cwd() common.Inum {
	return s.cwd
}

func (s *Session) record(op int, start time.Time) {
	s.ops.Op(op).Record(start)
}

func (s *Session) WriteOpStats(w io.Writer) {
	s.ops.WriteTable(w)
}

func (s *Session) WriteDevStats(w io.Writer) {
	s.fs.Dev.WriteStats(w)
}

func (s *Session) ResetStats() {
	s.ops.Reset()
	s.fs.Dev.ResetStats()
}

// lookupName checks the name given to an operation on an existing
// entry. No entry can carry an invalid name, so those are not found.
func lookupName(name string) common.Stat {
	st := dir.ValidName(name)
	if st == common.SFSERR_INVAL {
		return common.SFSERR_NOENT
	}
	return st
}

// The current directory is a directory unless the metadata is corrupt.
func (s *Session) cwdInode() *inode.Inode {
	dip := s.fs.GetInode(s.cwd)
	if !dip.IsDir() {
		panic("current directory is not a directory")
	}
	return dip
}

type Entry struct {
	Name string
	Kind common.Kind
}

type Listing struct {
	Entries []Entry
	NFile   uint64
	NDir    uint64
}

func (s *Session) Ls() (*Listing, common.Stat) {
	defer s.record(lsOp, time.Now())
	util.DPrintf(1, "Ls # %d\n", s.cwd)
	l := &Listing{}
	st := dir.Apply(s.fs, s.cwdInode(), func(de *dir.DirEnt, ip *inode.Inode) {
		switch ip.Kind {
		case common.KFILE:
			l.NFile++
		case common.KDIR:
			l.NDir++
		default:
			return
		}
		l.Entries = append(l.Entries, Entry{Name: de.Name, Kind: ip.Kind})
	})
	if st != common.SFS_OK {
		return nil, st
	}
	return l, common.SFS_OK
}

// Cd enters the directory name of the current directory. The display
// path becomes name itself.
func (s *Session) Cd(name string) common.Stat {
	defer s.record(cdOp, time.Now())
	util.DPrintf(1, "Cd %q\n", name)
	if st := lookupName(name); st != common.SFS_OK {
		return st
	}
	ip, st := dir.LookupName(s.fs, s.cwdInode(), name, common.KDIR)
	if st != common.SFS_OK {
		return st
	}
	s.cwd = ip.Inum
	s.path = name
	return common.SFS_OK
}

// Rd returns to the root directory.
func (s *Session) Rd() {
	defer s.record(rdOp, time.Now())
	s.cwd = common.ROOTINUM
	s.path = ROOTPATH
}

func (s *Session) Md(name string) common.Stat {
	defer s.record(mdOp, time.Now())
	util.DPrintf(1, "Md %q\n", name)
	if st := dir.ValidName(name); st != common.SFS_OK {
		return st
	}
	if s.fs.Ialloc.NFree() == 0 {
		return common.SFSERR_NOINODE
	}
	_, st := dir.AddName(s.fs, s.cwdInode(), name, common.KDIR)
	return st
}

// Create makes an empty file and returns a writer for its contents.
func (s *Session) Create(name string) (*Writer, common.Stat) {
	defer s.record(createOp, time.Now())
	util.DPrintf(1, "Create %q\n", name)
	if st := dir.ValidName(name); st != common.SFS_OK {
		return nil, st
	}
	ip, st := dir.AddName(s.fs, s.cwdInode(), name, common.KFILE)
	if st != common.SFS_OK {
		return nil, st
	}
	return &Writer{s: s, w: file.MkWriter(s.fs, ip)}, common.SFS_OK
}

// Writer is the append phase of Create.
type Writer struct {
	s *Session
	w *file.Writer
}

func (w *Writer) Append(data []byte) (uint64, common.Stat) {
	defer w.s.record(appendOp, time.Now())
	return w.w.Append(data)
}

func (w *Writer) Full() bool {
	return w.w.Full()
}

func (w *Writer) Size() uint64 {
	return w.w.Size()
}

func (s *Session) Display(name string) ([]byte, common.Stat) {
	defer s.record(displayOp, time.Now())
	util.DPrintf(1, "Display %q\n", name)
	if st := lookupName(name); st != common.SFS_OK {
		return nil, st
	}
	ip, st := dir.LookupName(s.fs, s.cwdInode(), name, common.KFILE)
	if st != common.SFS_OK {
		return nil, st
	}
	return file.Read(s.fs, ip)
}

// Rm removes a file, or a directory with everything in it.
func (s *Session) Rm(name string) common.Stat {
	defer s.record(rmOp, time.Now())
	util.DPrintf(1, "Rm %q\n", name)
	if st := lookupName(name); st != common.SFS_OK {
		return st
	}
	return dir.RemName(s.fs, s.cwdInode(), name)
}

type FsStat struct {
	FreeBlocks uint64
	FreeInodes uint64
}

// Stats counts the free flags in both bitmaps.
func (s *Session) Stats() FsStat {
	defer s.record(statsOp, time.Now())
	return FsStat{
		FreeBlocks: s.fs.Balloc.CountFree(),
		FreeInodes: s.fs.Ialloc.CountFree(),
	}
}
