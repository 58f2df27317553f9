package main

import "github.com/ValentinKolb/keyz/cmd"

func main() {
	cmd.Execute()
}
