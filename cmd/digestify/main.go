package main

import "github.com/zonemd/digestify/cmd/digestify/cmd"

func main() {
	cmd.Execute()
}
