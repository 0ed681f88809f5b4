package main

import "github.com/vietddude/retrypolicy/internal/cli"

func main() {
	cli.Execute()
}
