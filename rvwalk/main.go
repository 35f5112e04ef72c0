// Command rvwalk runs address translations of a scenario through the page
// table walker.
package main

import "github.com/sarchlab/rvwalk/rvwalk/cmd"

func main() {
	cmd.Execute()
}
