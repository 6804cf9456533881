package main

import "github.com/quantforge/forge/internal/cli"

func main() {
	cli.Execute()
}
