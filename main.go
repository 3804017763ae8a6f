package main

import "github.com/zjrosen/githydra/cmd"

func main() {
	cmd.Execute()
}
