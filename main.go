// cryopid-go is the Go rewrite of the cryopid process-checkpointing
// core: it attaches to a running process via ptrace, forces it to
// execute system calls in its own kernel context, and reports the
// external state (memory mappings, file descriptors, signal
// dispositions, registers) needed to checkpoint it.
//
// Commands:
//
//	capture <pid>   Attach to a process and capture its external state
package main

import (
	"fmt"
	"os"

	"github.com/seanjensengrey/cryopid.dev/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
