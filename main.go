package main

import (
	"PellinesFM/cmd"
)

func main() {
	cmd.Execute()
}
