package main

import (
	"github.com/Alturino/shopeasy/cmd"
)

func main() {
	cmd.Start()
}
