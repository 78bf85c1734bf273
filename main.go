package main

import "github.com/mj1618/deskctl/cmd"

func main() {
	cmd.Execute()
}
