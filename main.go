package main

import "github.com/ValentinKolb/stry/cmd"

func main() {
	cmd.Execute()
}
