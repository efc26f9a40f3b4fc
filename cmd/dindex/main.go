package main

import "github.com/ValentinKolb/dIndex/cmd"

func main() {
	cmd.Execute()
}
