package main

import "github.com/frahmantamala/employee-console/cmd"

func main() {
	cmd.Execute()
}
