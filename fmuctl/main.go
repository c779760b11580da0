// Command fmuctl runs and inspects co-simulations of FMI adapters.
package main

import "github.com/sarchlab/fmuadapter/fmuctl/cmd"

func main() {
	cmd.Execute()
}
