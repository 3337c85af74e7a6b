// Package main provides fieldctl, a tool for inspecting, verifying and
// re-enveloping dumped field streams without knowing their layer types.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
