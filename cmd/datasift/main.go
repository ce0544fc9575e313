package main

import "github.com/DrSkyle/datasift/cmd/datasift/commands"

func main() {
	commands.Execute()
}
