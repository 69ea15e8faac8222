// Command dataguard runs the document integrity and access-anomaly engine and
// administers its ledgers from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
