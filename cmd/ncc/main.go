// Command ncc compiles and runs a single source file (spec.md §6 "CLI").
package main

import (
	"flag"
	"fmt"
	"os"

	"ncc/compiler"
	"ncc/disasm"
	"ncc/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ncc", flag.ContinueOnError)
	trace := fs.Bool("d", false, "disassemble the compiled chunk and trace execution to stderr")
	// The flag package stops at the first positional argument, so parse
	// again after each one to accept -d after the file name as well.
	var files []string
	for rest := args; ; {
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if fs.NArg() == 0 {
			break
		}
		files = append(files, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	if len(files) != 1 {
		fmt.Fprintln(os.Stderr, "usage: ncc <file> [-d]")
		return 2
	}

	filename := files[0]
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ncc: %s\n", err)
		return 1
	}

	c := compiler.New(filename, string(src), os.Stderr)
	chunk, funcs, ok := c.Compile()
	if !ok {
		return 1
	}

	if *trace {
		disasm.Chunk(os.Stderr, chunk, filename)
	}

	machine := vm.New(chunk, filename, string(src), os.Stdin, os.Stdout, os.Stderr)
	machine.WithTrace(*trace)
	if !machine.Run(funcs.MainAddr) {
		return 1
	}
	return 0
}
