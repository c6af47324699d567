package main

import "github.com/nconklindev/warrantor/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Execute(version + " (commit " + commit + ", built " + date + ")")
}
