package main

import (
	"os"

	"github.com/scan-io-git/sariftool/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
