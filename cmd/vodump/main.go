// Package main provides vodump, a command-line utility that decodes a
// compiled-library (.vo) file and reports either the decoded summary or
// a positioned diagnostic with hex context.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/xyproto/env/v2"

	"github.com/scigolib/vofile"
)

// hexContext is the maximum number of bytes shown after each error
// position.
const hexContext = 256

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string {
	return fmt.Sprint(int(*v))
}

func (v *verbosity) Set(string) error {
	*v++
	return nil
}

func (v *verbosity) IsBoolFlag() bool {
	return true
}

func main() {
	quiet := flag.Bool("q", env.Bool("VODUMP_QUIET"), "disable output messages")
	verbose := verbosity(env.Int("VODUMP_VERBOSE", 0))
	flag.Var(&verbose, "v", "increase message verbosity (repeatable)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: vodump [-q] [-v]... <file.vo>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	contents, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	f, err := vofile.Decode(contents)
	if err != nil {
		if !*quiet {
			printError(contents, err)
		}
		os.Exit(1)
	}

	if *quiet || verbose == 0 {
		return
	}
	log.Printf("module %s: %d imports, %d deps, checksum %s",
		f.Summary.Name, len(f.Summary.Imports), len(f.Summary.Deps), f.Checksum)
	for _, seg := range f.Segments {
		log.Printf("segment %-16s stop=%d length=%d objects=%d", seg.Name, seg.Stop, seg.Length, seg.Objects)
	}
	if verbose >= 2 {
		spew.Fdump(os.Stderr, f.Summary)
	}
}

// printError reports each frame of a decode failure with up to 256 bytes
// of hex context starting at the frame's position. Positions count from
// the end of the file.
func printError(contents []byte, err error) {
	frames := vofile.Frames(err)
	if frames == nil {
		fmt.Printf("Error %v\n", err)
		return
	}
	for _, frame := range frames {
		fmt.Printf("Error %s (%d bytes from end)\n", frame.Msg, frame.Remaining)
		pos := len(contents) - frame.Remaining
		if pos < 0 || pos > len(contents) {
			continue
		}
		ctx := contents[pos:]
		if len(ctx) > hexContext {
			ctx = ctx[:hexContext]
		}
		for _, b := range ctx {
			fmt.Printf("%02x ", b)
		}
		fmt.Println()
	}
}
