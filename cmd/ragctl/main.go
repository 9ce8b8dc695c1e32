package main

import "github.com/akolanti/GoRAG/internal/cli"

func main() {
	cli.Execute()
}
