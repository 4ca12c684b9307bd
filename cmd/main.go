package main

import "github.com/emiliopalmerini/mhouse/internal/cli"

func main() {
	cli.Execute()
}
