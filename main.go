package main

import cmd "github.com/cozy-creator/meme-engine/cmd/memegen"

func main() {
	cmd.Execute()
}
