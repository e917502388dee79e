package main

import (
	"fmt"
	"os"

	"zatix-checkout/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
