// Command xformc is the reference driver for the transformation engine: a
// thin shell that wires the IR, directive, config and transform packages
// into a runnable translator, independent of the engine itself.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "history" {
		if err := runHistory(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "xformc history:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "xformc:", err)
		os.Exit(1)
	}
}
