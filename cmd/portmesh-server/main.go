package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/portmesh-go/internal/cli/command"
	"github.com/yndnr/portmesh-go/internal/core/domain"
)

func main() {
	if err := command.App().RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if domain.IsFatalAtStartup(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
