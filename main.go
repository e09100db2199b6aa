package main

import (
	"os"

	"etlapi/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
