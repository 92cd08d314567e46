package main

import "github.com/qobs-build/titanmk/cmd"

func main() {
	cmd.Execute()
}
