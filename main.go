package main

import "github.com/luispater/sl2browser/internal/cmd"

func main() {
	cmd.Execute()
}
