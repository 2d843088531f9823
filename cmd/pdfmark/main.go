package main

import "github.com/digitorus/pdfmark/cli"

func main() {
	cli.Run()
}
