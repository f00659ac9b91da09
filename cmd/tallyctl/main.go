package main

import "github.com/MrSnakeDoc/tally/internal/cli"

func main() {
	cli.Execute()
}
