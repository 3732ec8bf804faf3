package main

import "github.com/Alijeyrad/healthmarket_backend/cmd"

func main() {
	cmd.Execute()
}
