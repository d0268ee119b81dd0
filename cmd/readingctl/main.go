package main

import (
	"os"

	"github.com/yevgeniy8/books-reading-backend/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
