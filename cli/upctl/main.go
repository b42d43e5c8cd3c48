package main

import (
	"log"

	"github.com/frankonly/uptree/cli"
)

func main() {
	if err := cli.Init(); err != nil {
		log.Fatalf("failed to initialize upctl: %v", err)
	}

	cli.Execute()
}
