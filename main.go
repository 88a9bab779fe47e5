package main

import "github.com/sadbytecom/couplex/cmd"

func main() {
	cmd.Run()
}
