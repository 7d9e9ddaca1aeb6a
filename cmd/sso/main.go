// Command sso runs the single sign-on broker.
//
//go:generate swag init -g internal/sso/http/router.go -o api/sso --dir ../../
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
