package main

import (
	"os"

	"github.com/hashicorp-forge/mongobridge/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
