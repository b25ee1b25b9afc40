package main

import (
	"log"

	"github.com/kazuph/tabsense/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
