package main

import "github.com/frahmantamala/school-core/cmd"

func main() {
	cmd.Execute()
}
