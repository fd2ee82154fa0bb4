package main

import (
	"github.com/meridianchain/mrdn/cmd"
)

func main() {
	cmd.Execute()
}
