package main

import "github.com/dephub/pipcheck/cmd"

func main() {
	cmd.Execute()
}
