package main

import "docsim/cmd"

func main() {
	cmd.Execute()
}
