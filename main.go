// main.go
package main

import "github.com/dataweston/Dinewith/cmd"

func main() {
	cmd.Execute()
}
