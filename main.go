package main

import "github.com/baffalop/watsup/cmd"

func main() {
	cmd.Execute()
}
