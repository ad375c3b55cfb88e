//go:build !unix

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"taskman needs ps and POSIX signals and only runs on Unix-like systems such as Linux, macOS and the BSDs.",
	)
	os.Exit(1)
}
