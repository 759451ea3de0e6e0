package main

import "github.com/notargets/gomortar/cmd"

func main() {
	cmd.Execute()
}
