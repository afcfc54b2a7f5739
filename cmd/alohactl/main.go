// alohactl is the operator CLI for the alohad daemon.
package main

import "github.com/dantte-lp/alohamac/cmd/alohactl/commands"

func main() {
	commands.Execute()
}
