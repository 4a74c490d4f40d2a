package main

import "github.com/shouni/go-link-audit/cmd"

func main() {
	cmd.Execute()
}
