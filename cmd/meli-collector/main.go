// Package main is the entry point for meli-collector.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/donaldgifford/meli-collector/cmd/meli-collector/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "loading .env:", err)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
