// Command ev3c compiles EV3 instruction source into .rbf bytecode.
package main

import "ev3c/pkg/cli"

func main() {
	cli.Execute()
}
