package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/go-sfs/blkdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/sfs"
	"github.com/mit-pdos/go-sfs/super"
)

// smallfile represents one iteration of this benchmark: it creates a file,
// writes data to it, reads it back, and deletes it.
func smallfile(s *sfs.Session, name string, data []byte) {
	w, st := s.Create(name)
	if st != common.SFS_OK {
		panic(fmt.Errorf("create %s: %v", name, st))
	}
	if _, st := w.Append(data); st != common.SFS_OK {
		panic(fmt.Errorf("append %s: %v", name, st))
	}
	got, st := s.Display(name)
	if st != common.SFS_OK || len(got) != len(data) {
		panic(fmt.Errorf("display %s: %v", name, st))
	}
	if st := s.Rm(name); st != common.SFS_OK {
		panic(fmt.Errorf("rm %s: %v", name, st))
	}
}

func mkdata(sz uint64) []byte {
	data := make([]byte, sz)
	for i := range data {
		// stay clear of NUL so the whole chunk reads back
		data[i] = byte(i%127) + 1
	}
	return data
}

func run(s *sfs.Session, duration time.Duration, sz uint64) (time.Duration, int) {
	data := mkdata(sz)
	start := time.Now()
	i := 0
	for {
		smallfile(s, "x"+strconv.Itoa(i), data)
		i++
		elapsed := time.Since(start)
		if elapsed >= duration {
			return elapsed, i
		}
	}
}

func mkfs(diskfile string) (*sfs.Session, error) {
	sup := super.DefaultSuper()
	if diskfile == "" {
		return sfs.Mkfs(blkdev.MkMemDev(sup.NBlock), sup)
	}
	dev, err := blkdev.OpenFileDev(diskfile, sup.NBlock)
	if err != nil {
		return nil, err
	}
	return sfs.Mkfs(dev, sup)
}

func main() {
	var diskfile string
	var duration time.Duration
	var sz uint64
	var dumpStats bool
	flag.StringVar(&diskfile, "disk", "", "disk image (empty for MemDisk)")
	flag.DurationVar(&duration, "benchtime", 10*time.Second, "time to run for")
	flag.Uint64Var(&sz, "size", 100, "bytes per file (at most one block)")
	flag.BoolVar(&dumpStats, "stats", false, "dump stats to stderr at end")
	flag.Uint64Var(&util.Debug, "debug", 0, "debug level (higher is more verbose)")

	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")

	flag.Parse()
	if sz == 0 || sz > common.BLOCKSZ {
		panic("invalid size")
	}

	s, err := mkfs(diskfile)
	if err != nil {
		panic(fmt.Errorf("could not create file system: %w", err))
	}
	defer s.Close()

	// warmup (skip if running for very little time)
	if duration > 500*time.Millisecond {
		run(s, 500*time.Millisecond, sz)
		s.ResetStats()
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	elapsed, count := run(s, duration, sz)
	fmt.Printf("sfs-smallfile: %0.4f file/sec\n", float64(count)/elapsed.Seconds())
	if problems := s.Check(); len(problems) > 0 {
		panic(fmt.Errorf("inconsistent after run: %v", problems))
	}
	if dumpStats {
		s.WriteOpStats(os.Stderr)
		s.WriteDevStats(os.Stderr)
	}
}
