package main

import "github.com/zinc-sig/kaas/cmd"

func main() {
	cmd.Execute()
}
