package main

import "github.com/vedsharma/apiclient/cmd"

func main() {
	cmd.Execute()
}
