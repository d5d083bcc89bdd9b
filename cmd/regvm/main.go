// Command regvm compiles regular expressions to regvm bytecode and runs,
// disassembles, analyzes or embeds them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
