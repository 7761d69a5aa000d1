package main

import "github.com/papapumpkin/rocketserializer/cmd"

func main() {
	cmd.Execute()
}
