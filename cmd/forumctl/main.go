package main

import "github.com/princinho/stackforum/cmd/forumctl/commands"

func main() {
	commands.Execute()
}
