package main

import "github.com/promptveil/promptveil/internal/cli"

func main() {
	cli.Execute()
}
