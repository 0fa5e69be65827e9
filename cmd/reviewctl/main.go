package main

import "github.com/reviewdesk/reviewdesk/cmd/reviewctl/cmd"

func main() {
	cmd.Execute()
}
