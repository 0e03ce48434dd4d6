// Command navctl is an operator tool for the wayfinding service.
//
// Usage:
//
//	navctl normalize [file] [--round=false]
//	navctl token --subject kiosk-1 --role device
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
