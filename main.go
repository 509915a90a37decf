// Command umpk80 emulates the UMPK-80 microprocessor trainer.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"

	"github.com/nf/umpk80/umpk80"
)

func main() {
	log.SetPrefix("umpk80: ")
	log.SetFlags(0)

	var (
		boardFlag      = flag.String("board", "umpk80", "board `variant`: "+strings.Join(boardNames(), ", "))
		cliFlag        = flag.Bool("cli", false, "show the front panel in the terminal instead of a window")
		devFlag        = flag.Bool("dev", false, "enable developer mode (reload the ROM when it changes)")
		debugFlag      = flag.Bool("debug", false, "enable debugger (implies -dev)")
		ipsFlag        = flag.Int("ips", umpk80.DefaultIPS, "instructions per second")
		trampolineFlag = flag.String("trampoline", fmt.Sprintf("%.4x", umpk80.DefaultTrampoline), "hex `address` of the monitor's single-step trampoline")
		symFlag        = flag.String("sym", "", "symbol `file` for the debugger (lines of: addr label)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-board name] [-cli] <monitor.rom>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [-cli] <-dev | -debug> [-sym file] <monitor.rom>\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "%s\n", umpk80.HostKeys)
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	ports, ok := umpk80.Boards[*boardFlag]
	if !ok {
		log.Fatalf("unknown board %q", *boardFlag)
	}
	tramp, err := strconv.ParseUint(strings.TrimSuffix(*trampolineFlag, "h"), 16, 16)
	if err != nil || tramp == 0 {
		log.Fatalf("invalid trampoline address %q", *trampolineFlag)
	}
	opts := umpk80.RunnerOptions{
		Config: umpk80.Config{
			Ports:      ports,
			Trampoline: uint16(tramp),
		},
		Frontend: umpk80.GUIFrontend,
		IPS:      *ipsFlag,
	}
	if *cliFlag {
		opts.Frontend = umpk80.TermFrontend
	}

	if *devFlag || *debugFlag {
		useDebugger := *debugFlag || *cliFlag
		if useDebugger && opts.Frontend == umpk80.TermFrontend {
			// The debugger owns the terminal and shows the panel itself.
			opts.Frontend = umpk80.NoFrontend
		}
		if err := devMode(opts, flag.Arg(0), *symFlag, useDebugger); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err = run(flag.Arg(0), opts)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

func run(romFile string, opts umpk80.RunnerOptions) error {
	rom, err := os.ReadFile(romFile)
	if err != nil {
		return err
	}
	return umpk80.NewRunner(opts).Run(rom)
}

func boardNames() []string {
	var names []string
	for n := range umpk80.Boards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
