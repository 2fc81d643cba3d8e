package main

import "github.com/ngld/ninelives/cmd"

func main() {
	cmd.Execute()
}
