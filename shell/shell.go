// Package shell reads commands line by line, runs them against an sfs
// session and prints the outcome of each.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/sfs"
)

// ESC ends the content of a file being created.
const ESC byte = 27

type Shell struct {
	s   *sfs.Session
	in  *bufio.Reader
	out io.Writer
}

func MkShell(s *sfs.Session, in io.Reader, out io.Writer) *Shell {
	return &Shell{s: s, in: bufio.NewReader(in), out: out}
}

func (sh *Shell) printf(format string, a ...interface{}) {
	fmt.Fprintf(sh.out, format, a...)
}

func (sh *Shell) prompt() {
	sh.printf("SFS::%s# ", sh.s.Path())
}

// Run executes commands until exit or end of input.
func (sh *Shell) Run() error {
	for {
		sh.prompt()
		line, err := sh.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF && line == "" {
			sh.printf("\n")
			return nil
		}
		if !sh.Exec(line) {
			return nil
		}
		if err == io.EOF {
			sh.printf("\n")
			return nil
		}
	}
}

// Exec runs one command line. It returns false if the line asks to exit.
// Lines with more than two words and unknown commands are ignored.
func (sh *Shell) Exec(line string) bool {
	tokens := strings.Fields(line)
	util.DPrintf(5, "Exec %q\n", tokens)
	switch len(tokens) {
	case 1:
		switch tokens[0] {
		case "ls":
			sh.ls()
		case "exit":
			return false
		case "stats":
			sh.stats()
		case "rd":
			sh.s.Rd()
		case "check":
			sh.check()
		case "iostat":
			sh.iostat()
		}
	case 2:
		name := tokens[1]
		switch tokens[0] {
		case "md":
			sh.md(name)
		case "cd":
			sh.cd(name)
		case "display":
			sh.display(name)
		case "create":
			sh.create(name)
		case "rm":
			sh.rm(name)
		}
	}
	return true
}

func plural(n uint64, one string, many string) string {
	if n <= 1 {
		return one
	}
	return many
}

func (sh *Shell) badName(name string) {
	sh.printf("%s: Invalid name.\n", name)
}

func (sh *Shell) ls() {
	l, st := sh.s.Ls()
	if st != common.SFS_OK {
		sh.printf("ls: %v\n", st)
		return
	}
	for _, e := range l.Entries {
		if e.Kind == common.KDIR {
			sh.printf("\x1b[1;31m%s\x1b[;;m\t", e.Name)
		} else {
			sh.printf("%s\t", e.Name)
		}
	}
	sh.printf("\n%d file%s and %d director%s.\n",
		l.NFile, plural(l.NFile, "", "s"), l.NDir, plural(l.NDir, "y", "ies"))
}

func (sh *Shell) stats() {
	st := sh.s.Stats()
	sh.printf("%d block%s free.\n", st.FreeBlocks, plural(st.FreeBlocks, "", "s"))
	sh.printf("%d inode entr%s free.\n", st.FreeInodes,
		plural(st.FreeInodes, "y", "ies"))
}

func (sh *Shell) check() {
	problems := sh.s.Check()
	for _, p := range problems {
		sh.printf("%s\n", p)
	}
	if len(problems) == 0 {
		sh.printf("No problems found.\n")
	}
}

func (sh *Shell) iostat() {
	sh.s.WriteOpStats(sh.out)
	sh.s.WriteDevStats(sh.out)
}

func (sh *Shell) md(name string) {
	switch st := sh.s.Md(name); st {
	case common.SFS_OK:
	case common.SFSERR_USAGE:
		sh.printf("Usage: md <directory name>\n")
	case common.SFSERR_NOINODE:
		sh.printf("Error: Inode table is full.\n")
	case common.SFSERR_EXIST:
		sh.printf("%s: Already exists.\n", name)
	case common.SFSERR_DIRFULL:
		sh.printf("Error: Maximum directory entries reached.\n")
	case common.SFSERR_NOSPC:
		sh.printf("Error: Disk is full.\n")
	case common.SFSERR_INVAL:
		sh.badName(name)
	default:
		sh.printf("md: %v\n", st)
	}
}

func (sh *Shell) cd(name string) {
	switch st := sh.s.Cd(name); st {
	case common.SFS_OK:
	case common.SFSERR_NOENT:
		sh.printf("%s: No such directory.\n", name)
	default:
		sh.printf("cd: %v\n", st)
	}
}

func (sh *Shell) display(name string) {
	data, st := sh.s.Display(name)
	switch st {
	case common.SFS_OK:
		sh.out.Write(data)
		sh.printf("\n")
	case common.SFSERR_NOENT:
		sh.printf("%s: No such file.\n", name)
	default:
		sh.printf("display: %v\n", st)
	}
}

func (sh *Shell) rm(name string) {
	switch st := sh.s.Rm(name); st {
	case common.SFS_OK:
	case common.SFSERR_NOENT:
		sh.printf("%s not found in current directory!\n", name)
	default:
		sh.printf("rm: %v\n", st)
	}
}

func (sh *Shell) create(name string) {
	w, st := sh.s.Create(name)
	switch st {
	case common.SFS_OK:
	case common.SFSERR_EXIST:
		sh.printf("%s: Already exists.\n", name)
		return
	case common.SFSERR_DIRFULL:
		sh.printf("File system is full: There is no empty space in this directory!\n")
		return
	case common.SFSERR_NOSPC:
		sh.printf("File system is full: No data blocks available!\n")
		return
	case common.SFSERR_NOINODE:
		sh.printf("File system is full: No inodes available!\n")
		return
	case common.SFSERR_INVAL:
		sh.badName(name)
		return
	default:
		sh.printf("create: %v\n", st)
		return
	}
	sh.printf("%s has been created, enter the text.\n", name)
	sh.fill(w)
	util.DPrintf(1, "create %s: %d bytes\n", name, w.Size())
}

// readChunk reads up to one block of content. It reports whether the
// content ended, either at ESC or at the end of input.
func (sh *Shell) readChunk() ([]byte, bool) {
	var chunk []byte
	for uint64(len(chunk)) < common.BLOCKSZ {
		b, err := sh.in.ReadByte()
		if err != nil || b == ESC {
			return chunk, true
		}
		chunk = append(chunk, b)
	}
	return chunk, false
}

// discardLine drops what is left of the current input line.
func (sh *Shell) discardLine() {
	if _, err := sh.in.ReadString('\n'); err != nil {
		util.DPrintf(5, "discardLine: %v\n", err)
	}
}

func (sh *Shell) fill(w *sfs.Writer) {
	for !w.Full() {
		chunk, done := sh.readChunk()
		if len(chunk) > 0 {
			if _, st := w.Append(chunk); st != common.SFS_OK {
				if st.Exhausted() {
					sh.printf("File system full: No such data blocks!\n")
					sh.printf("Data will be truncated!\n")
				} else {
					sh.printf("create: %v\n", st)
				}
				sh.discardLine()
				return
			}
		}
		if done {
			sh.discardLine()
			return
		}
	}
	sh.printf("Maximum file size reached!\n")
	sh.printf("Then data will be truncated!\n")
	sh.discardLine()
}
