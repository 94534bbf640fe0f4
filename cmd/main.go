package main

import (
	"github.com/ispeed-collector/cmd/agent"
)

func main() {
	agent.Execute()
}
