// Command filesort sorts a text file of one signed 32-bit integer per line,
// in place, using a bounded-memory external merge sort.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joe-skb7/filesort/internal/cpuinfo"
	"github.com/joe-skb7/filesort/internal/profile"
	"github.com/joe-skb7/filesort/internal/sortengine"
	"github.com/joe-skb7/filesort/internal/sortsvc"
)

var (
	shutdownChan = make(chan os.Signal, 1)
	cleanupFuncs []func()
)

func main() {
	setupSignalHandler()

	if len(os.Args) >= 2 && os.Args[1] == "serve" {
		runServe(os.Args[2:])
		return
	}

	runSort(os.Args[1:])
}

func setupSignalHandler() {
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdownChan
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
		os.Exit(130)
	}()
}

func printUsage() {
	fmt.Println(`filesort - external sort for files of one signed 32-bit integer per line

Usage:
    filesort FILENAME [-b BUFFER_SIZE] [-t THREADS] [-v] [-profile] [-stats]
    filesort serve [-socket PATH] [-max-concurrent N]

    FILENAME           path to the text file to sort in place
    -b BUFFER_SIZE     shared chunk buffer size in mebibytes, [1,1024] (default 128)
    -t THREADS         per-chunk parallel sort worker count, [1,1024] (default: CPU count)
    -v                 print a progress line to stderr while sorting
    -profile           print per-stage timing to stderr after sorting
    -stats             write an approximate distinct-value sidecar next to the output

    serve              run as a Unix-socket batch sort daemon instead of a one-shot sort`)
}

func runSort(args []string) {
	fs := flag.NewFlagSet("filesort", flag.ExitOnError)
	fs.Usage = printUsage

	bufferMB := fs.Int("b", 128, "buffer size in MiB")
	threads := fs.Int("t", cpuinfo.DefaultThreads(), "worker thread count")
	verbose := fs.Bool("v", false, "verbose progress output")
	profileFlag := fs.Bool("profile", false, "print per-stage timing")
	statsFlag := fs.Bool("stats", false, "write an approximate distinct-value sidecar")

	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: FILENAME is required")
		printUsage()
		os.Exit(1)
	}
	path := fs.Arg(0)
	// Flags may also follow FILENAME, as in the usage line.
	_ = fs.Parse(fs.Args()[1:])

	if *bufferMB < 1 || *bufferMB > 1024 {
		fmt.Fprintln(os.Stderr, "Error: -b must be in [1, 1024]")
		os.Exit(1)
	}
	if *threads < 1 || *threads > 1024 {
		fmt.Fprintln(os.Stderr, "Error: -t must be in [1, 1024]")
		os.Exit(1)
	}

	var opts []sortengine.Option

	if *profileFlag {
		timing := profile.NewTiming()
		opts = append(opts, sortengine.WithObserver(timing))
		defer timing.Report(os.Stderr)
	}

	if *verbose {
		opts = append(opts, sortengine.WithProgress(func(stage string, count int64) {
			fmt.Fprintf(os.Stderr, "\r\033[K%s: %d values processed", stage, count)
		}))
		defer fmt.Fprintln(os.Stderr)
	}

	if *statsFlag {
		opts = append(opts, sortengine.WithStats(path+".distinct.bloom.lz4"))
	}

	if err := sortengine.Sort(path, *bufferMB*1024*1024, *threads, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	socket := fs.String("socket", "/tmp/filesort.sock", "Unix socket path")
	maxConcurrent := fs.Int("max-concurrent", 8, "maximum concurrent sort jobs")

	_ = fs.Parse(args)

	srv := sortsvc.New(sortsvc.Config{
		SocketPath:     *socket,
		MaxConcurrency: *maxConcurrent,
	})
	cleanupFuncs = append(cleanupFuncs, srv.Shutdown)

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
