package main

import "github.com/marshallshelly/gmbctl/cmd/gmbctl/commands"

func main() {
	commands.Execute()
}
