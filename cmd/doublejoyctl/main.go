package main

import "github.com/AdejareAyomikun/doublejoy-backend/internal/cli"

func main() {
	cli.Execute()
}
