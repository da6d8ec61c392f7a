package main

import "github.com/Mohsinsiddi/w3send/cmd"

func main() {
	cmd.Execute()
}
