// SPDX-License-Identifier: MIT

// Command corpex runs the corpus-explanation experiments and inspects the
// explainers they persist.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
