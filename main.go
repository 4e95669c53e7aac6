package main

import "rollcall-scores-go/cli"

func main() {
	cli.Execute()
}
