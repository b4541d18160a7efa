package main

import "github.com/angelospk/tmdb-go/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
