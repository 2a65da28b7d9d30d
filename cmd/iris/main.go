package main

import "github.com/funvibe/iris/pkg/cli"

func main() {
	cli.Run()
}
