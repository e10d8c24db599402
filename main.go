package main

import "dhcp-leasewatch/cmd"

func main() {
	cmd.Execute()
}
