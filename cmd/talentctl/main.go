// Command talentctl scores cohorts against role profiles from the command line.
package main

import "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/cli"

func main() {
	cli.Execute()
}
