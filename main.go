package main

import (
	"os"

	"github.com/kfreiman/interviewcoach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
