package main

import "audiocut/cmd"

func main() {
	cmd.Execute()
}
