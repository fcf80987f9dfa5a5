package main

import "github.com/latom-bot/latom/cmd"

func main() {
	cmd.Execute()
}
