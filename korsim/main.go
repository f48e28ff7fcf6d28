// Command korsim simulates a cluster of modules that coordinate through a
// shared field region.
package main

import "github.com/sarchlab/korfield/korsim/cmd"

func main() {
	cmd.Execute()
}
