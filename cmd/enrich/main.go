// Command enrich runs the validation-metadata enrichment on a request file
// without any of the service infrastructure.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
