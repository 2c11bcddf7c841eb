package main

import "github.com/felixgeelhaar/steamrec/cmd/steamrec/cli"

func main() {
	cli.Execute()
}
