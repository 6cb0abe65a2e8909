package main

import (
	"github.com/oneelevenhq/leadbridge/cmd"
)

func main() {
	cmd.Execute()
}
