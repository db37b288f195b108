// Command gripdiag checks connectivity to the robot-control device:
// ping, control-port probe, and a candidate-port scan.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/cfg"
	"github.com/Aaryan09-coder/final-major-project-final/internal/diag"
)

func main() {
	_ = godotenv.Load()

	hostFlag := flag.String("host", "", "robot host, overrides config")
	portFlag := flag.Int("port", 0, "robot control port, overrides config")
	timeout := flag.Duration("timeout", 3*time.Second, "per-check timeout")
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	host := c.RobotHost
	if *hostFlag != "" {
		host = *hostFlag
	}
	port := c.RobotPort
	if *portFlag != 0 {
		port = *portFlag
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("robot connectivity diagnostics: %s:%d\n\n", host, port)
	results := diag.RunAll(ctx, host, port, *timeout)

	failed := 0
	for _, r := range results {
		status := "OK  "
		if !r.OK {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %-28s %s\n", status, r.Check, r.Detail)
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d checks failed\n", failed, len(results))
		os.Exit(1)
	}
	fmt.Println("\nall checks passed")
}
