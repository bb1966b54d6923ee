package main

import "github.com/kdevcrawl/corpuscrawler/cmd"

func main() {
	cmd.Execute()
}
