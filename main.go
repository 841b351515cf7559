package main

import (
	"os"

	"github.com/go-authgate/dirgate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
