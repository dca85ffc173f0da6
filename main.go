package main

import "github.com/mediajenny/the-oracle/cmd"

func main() {
	cmd.Execute()
}
