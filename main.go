package main

import "github.com/exiledproject/launcher-cms/cmd"

func main() {
	cmd.Execute()
}
