package main

import "github.com/sicko7947/wldstore/cmd"

func main() {
	cmd.Execute()
}
