package main

import "github.com/andresmejia3/spotter/cmd"

func main() {
	cmd.Execute()
}
