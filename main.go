package main

import "github.com/frahmantamala/finance-ops/cmd"

func main() {
	cmd.Execute()
}
