package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/sma-gradebook/internal/cli"
)

// @title SMA Gradebook Gateway
// @version 0.2.0
// @description Client gateway for the grade service with offline fallback
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gradebook:", err)
		os.Exit(1)
	}
}
