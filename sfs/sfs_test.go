package sfs

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/super"
)

type TestState struct {
	t *testing.T
	s *Session
}

func newTest(t *testing.T) *TestState {
	s, err := Mkfs(blkdev.MkMemDev(100), super.DefaultSuper())
	require.NoError(t, err)
	return &TestState{t: t, s: s}
}

func (ts *TestState) Close() {
	ts.s.Close()
}

// stats also checks the running counters against the bitmaps
func (ts *TestState) stats() FsStat {
	fs := ts.s.FsState()
	st := ts.s.Stats()
	assert.Equal(ts.t, st.FreeBlocks, fs.Balloc.NFree())
	assert.Equal(ts.t, st.FreeInodes, fs.Ialloc.NFree())
	assert.Empty(ts.t, ts.s.Check())
	return st
}

func (ts *TestState) md(name string) {
	assert.Equal(ts.t, common.SFS_OK, ts.s.Md(name), "md %q", name)
}

func (ts *TestState) create(name string, data string) {
	w, st := ts.s.Create(name)
	require.Equal(ts.t, common.SFS_OK, st, "create %q", name)
	if data != "" {
		_, st = w.Append([]byte(data))
		require.Equal(ts.t, common.SFS_OK, st)
	}
}

func (ts *TestState) display(name string) string {
	data, st := ts.s.Display(name)
	require.Equal(ts.t, common.SFS_OK, st, "display %q", name)
	return string(data)
}

func TestFresh(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	assert.Equal(t, FsStat{FreeBlocks: 96, FreeInodes: 126}, ts.stats())
	assert.Equal(t, "/", ts.s.Path())
	l, st := ts.s.Ls()
	require.Equal(t, common.SFS_OK, st)
	assert.Empty(t, l.Entries)
}

func TestCreateDisplay(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.create("a.txt", "hi")
	assert.Equal(t, "hi", ts.display("a.txt"))
	ts.stats()
}

func TestMdTwice(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.md("docs")
	before := ts.stats()
	assert.Equal(t, common.SFSERR_EXIST, ts.s.Md("docs"))
	assert.Equal(t, before, ts.stats())
}

func TestMdUsage(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	before := ts.stats()
	assert.Equal(t, common.SFSERR_USAGE, ts.s.Md(""))
	assert.Equal(t, before, ts.stats())
}

func TestMdInodesExhausted(t *testing.T) {
	sup, err := super.MkFsSuper(100, 2)
	require.NoError(t, err)
	s, err := Mkfs(blkdev.MkMemDev(100), sup)
	require.NoError(t, err)
	ts := &TestState{t: t, s: s}
	defer ts.Close()

	ts.md("a")
	before := ts.stats()
	assert.Equal(t, common.SFSERR_NOINODE, ts.s.Md("b"))
	assert.Equal(t, common.SFSERR_NOINODE, ts.s.Md("a"), "fails before the name check")
	assert.Equal(t, before, ts.stats())
}

func TestThirteenthMd(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	for i := 0; i < 12; i++ {
		ts.md(fmt.Sprintf("d%02d", i))
	}
	before := ts.stats()
	assert.Equal(t, common.SFSERR_DIRFULL, ts.s.Md("d12"))
	assert.Equal(t, before, ts.stats())

	l, _ := ts.s.Ls()
	assert.Equal(t, uint64(12), l.NDir)
	assert.Equal(t, uint64(0), l.NFile)
}

func TestCdMissing(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.md("docs")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	cwd := ts.s.Cwd()

	assert.Equal(t, common.SFSERR_NOENT, ts.s.Cd("nope"))
	assert.Equal(t, cwd, ts.s.Cwd())
	assert.Equal(t, "docs", ts.s.Path())
}

func TestCdFile(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.create("a.txt", "x")
	assert.Equal(t, common.SFSERR_NOENT, ts.s.Cd("a.txt"))
	assert.Equal(t, common.ROOTINUM, ts.s.Cwd())

	_, st := ts.s.Display("nope")
	assert.Equal(t, common.SFSERR_NOENT, st)
	ts.md("d")
	_, st = ts.s.Display("d")
	assert.Equal(t, common.SFSERR_NOENT, st, "display wants a file")
}

func TestCdRd(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.md("docs")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	ts.md("inner")
	require.Equal(t, common.SFS_OK, ts.s.Cd("inner"))
	assert.Equal(t, "inner", ts.s.Path(), "path is the last argument only")

	ts.s.Rd()
	assert.Equal(t, common.ROOTINUM, ts.s.Cwd())
	assert.Equal(t, "/", ts.s.Path())
	l, _ := ts.s.Ls()
	assert.Equal(t, []Entry{{Name: "docs", Kind: common.KDIR}}, l.Entries)
}

func TestLsCounts(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.md("docs")
	ts.create("a", "1")
	ts.create("b", "")
	l, st := ts.s.Ls()
	require.Equal(t, common.SFS_OK, st)
	assert.Equal(t, uint64(2), l.NFile)
	assert.Equal(t, uint64(1), l.NDir)
	assert.Equal(t, []Entry{
		{Name: "docs", Kind: common.KDIR},
		{Name: "a", Kind: common.KFILE},
		{Name: "b", Kind: common.KFILE},
	}, l.Entries)
}

func TestRmRecursive(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	before := ts.stats()

	ts.md("docs")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	ts.create("a.txt", "hello")
	ts.md("sub")
	require.Equal(t, common.SFS_OK, ts.s.Cd("sub"))
	for i := 0; i < 5; i++ {
		ts.create(fmt.Sprintf("f%d", i), "data")
	}
	ts.md("empty")
	ts.stats()

	ts.s.Rd()
	assert.Equal(t, common.SFS_OK, ts.s.Rm("docs"))
	assert.Equal(t, before, ts.stats())
	assert.Equal(t, common.SFSERR_NOENT, ts.s.Rm("docs"))
}

func TestEndToEnd(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()

	ts.md("docs")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	w, st := ts.s.Create("a.txt")
	require.Equal(t, common.SFS_OK, st)
	afterCreate := ts.stats()
	_, st = w.Append([]byte("hi"))
	require.Equal(t, common.SFS_OK, st)

	assert.Equal(t, "hi", ts.display("a.txt"))
	require.Equal(t, common.SFS_OK, ts.s.Rm("a.txt"))

	after := ts.stats()
	assert.Equal(t, afterCreate.FreeBlocks+1, after.FreeBlocks)
	assert.Equal(t, afterCreate.FreeInodes+1, after.FreeInodes)
}

func TestDiskFullTruncates(t *testing.T) {
	sup, err := super.MkFsSuper(7, 127)
	require.NoError(t, err)
	s, err := Mkfs(blkdev.MkMemDev(7), sup)
	require.NoError(t, err)
	ts := &TestState{t: t, s: s}
	defer ts.Close()

	// root takes block 4, leaving 5 and 6 for data
	w, st := ts.s.Create("big")
	require.Equal(t, common.SFS_OK, st)
	chunk := bytes.Repeat([]byte("z"), int(common.BLOCKSZ))
	for i := 0; i < 2; i++ {
		_, st = w.Append(chunk)
		require.Equal(t, common.SFS_OK, st)
	}
	_, st = w.Append(chunk)
	assert.Equal(t, common.SFSERR_NOSPC, st)
	assert.Equal(t, 2*int(common.BLOCKSZ), len(ts.display("big")))
	ts.stats()

	_, st = ts.s.Create("other")
	assert.Equal(t, common.SFS_OK, st, "the root block still has free entries")
	ts.md("c")
	ts.md("d")
	before := ts.stats()
	assert.Equal(t, common.SFSERR_NOSPC, ts.s.Md("e"), "a fifth entry needs a block")
	assert.Equal(t, before, ts.stats())
}

func TestPersistAcrossMount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sfs.disk")
	dev, err := blkdev.OpenFileDev(path, 100)
	require.NoError(t, err)
	s, err := Mkfs(dev, super.DefaultSuper())
	require.NoError(t, err)
	ts := &TestState{t: t, s: s}
	ts.md("docs")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	ts.create("a.txt", "persisted")
	before := ts.stats()
	ts.Close()

	dev, err = blkdev.OpenFileDev(path, 0)
	require.NoError(t, err)
	s, err = Mount(dev)
	require.NoError(t, err)
	ts = &TestState{t: t, s: s}
	defer ts.Close()
	assert.Equal(t, before, ts.stats())
	assert.Equal(t, "/", ts.s.Path(), "mount starts at the root")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	assert.Equal(t, "persisted", ts.display("a.txt"))
}

func TestCorruptCwdPanics(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.md("docs")
	require.Equal(t, common.SFS_OK, ts.s.Cd("docs"))
	ts.s.FsState().GetInode(ts.s.Cwd()).Kind = common.KFILE
	assert.Panics(t, func() { ts.s.Ls() })
}

func TestCheckFindsLeak(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.create("a", "x")
	fs := ts.s.FsState()
	_, ok := fs.AllocBlock()
	require.True(t, ok)
	problems := ts.s.Check()
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "unreachable")
}

func TestOpStats(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	ts.md("docs")
	ts.s.Ls()
	var buf bytes.Buffer
	ts.s.WriteOpStats(&buf)
	assert.Contains(t, buf.String(), "MD")
	assert.Contains(t, buf.String(), "LS")
	assert.NotContains(t, buf.String(), "DISPLAY")
}

func TestLongNames(t *testing.T) {
	ts := newTest(t)
	defer ts.Close()
	long := strings.Repeat("n", int(common.MAXNAMELEN)+1)
	before := ts.stats()

	assert.Equal(t, common.SFSERR_NOENT, ts.s.Cd(long))
	_, st := ts.s.Display(long)
	assert.Equal(t, common.SFSERR_NOENT, st)
	assert.Equal(t, common.SFSERR_NOENT, ts.s.Rm(long))

	assert.Equal(t, common.SFSERR_INVAL, ts.s.Md(long))
	_, st = ts.s.Create(long)
	assert.Equal(t, common.SFSERR_INVAL, st)
	assert.Equal(t, before, ts.stats())
}
