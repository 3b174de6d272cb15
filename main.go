package main

import "github.com/KaramelBytes/datasmith-cli/cmd"

func main() {
	cmd.Execute()
}
