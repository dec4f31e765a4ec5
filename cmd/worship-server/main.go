// Package main is the worship-server entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/UniM0cha/gilton-system/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
