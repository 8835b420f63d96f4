package main

import (
	"os"

	"github.com/dshills/gitctx/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
