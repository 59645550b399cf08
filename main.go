package main

import "inventory-agent/cmd"

func main() {
	cmd.Execute()
}
