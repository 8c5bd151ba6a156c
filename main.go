package main

import "github.com/hmans/larder/cmd"

func main() {
	cmd.Execute()
}
