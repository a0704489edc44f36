package main

import "AreYouDead/internal/cli"

func main() {
	cli.Execute()
}
