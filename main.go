package main

import "github.com/retro8/chip8vm/cmd"

func main() {
	cmd.Execute()
}
