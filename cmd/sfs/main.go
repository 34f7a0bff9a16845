package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/sfs"
	"github.com/mit-pdos/go-sfs/shell"
	"github.com/mit-pdos/go-sfs/super"
)

func open(diskfile string, mkfs bool, sup *super.FsSuper) (*sfs.Session, error) {
	if diskfile == "" {
		return sfs.Mkfs(blkdev.MkMemDev(sup.NBlock), sup)
	}
	if mkfs {
		dev, err := blkdev.OpenFileDev(diskfile, sup.NBlock)
		if err != nil {
			return nil, err
		}
		s, err := sfs.Mkfs(dev, sup)
		if err != nil {
			dev.Close()
			return nil, err
		}
		return s, nil
	}
	if _, err := os.Stat(diskfile); err != nil {
		return nil, fmt.Errorf("disk file %s not found: %w", diskfile, err)
	}
	dev, err := blkdev.OpenFileDev(diskfile, 0)
	if err != nil {
		return nil, err
	}
	s, err := sfs.Mount(dev)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return s, nil
}

func main() {
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")

	var diskfile string
	flag.StringVar(&diskfile, "disk", "sfs.disk", "disk image (empty for MemDisk)")

	var mkfs bool
	flag.BoolVar(&mkfs, "mkfs", false, "format the disk image before mounting")

	var nblocks uint64
	flag.Uint64Var(&nblocks, "nblocks", 100, "blocks in a new file system")

	var ninodes uint64
	flag.Uint64Var(&ninodes, "ninodes", 127, "inode entries in a new file system")

	var dumpStats bool
	flag.BoolVar(&dumpStats, "stats", false, "dump stats to stderr at end")

	flag.Uint64Var(&util.Debug, "debug", 0, "debug level (higher is more verbose)")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	sup, err := super.MkFsSuper(nblocks, ninodes)
	if err != nil {
		log.Fatal(err)
	}
	s, err := open(diskfile, mkfs, sup)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sfs: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	sh := shell.MkShell(s, os.Stdin, os.Stdout)
	if err := sh.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "sfs: %v\n", err)
	}
	if dumpStats {
		s.WriteOpStats(os.Stderr)
		s.WriteDevStats(os.Stderr)
	}
}
