package main

import "github.com/autoperception/dataset-explorer/cmd"

func main() {
	cmd.Execute()
}
