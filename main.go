// The main package for the wikirefs executable.
package main

import (
	"os"

	"github.com/JakeFAU/wikirefs/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
