// Package diag checks connectivity to the robot-control device: host
// reachability, TCP port state, and a scan over candidate control
// ports. It is an independent utility with no data dependency on the
// classifier.
package diag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of one connectivity check.
type Result struct {
	Check  string
	OK     bool
	Detail string
}

// ProbePort attempts a TCP connection to host:port and interprets the
// failure mode for the operator.
func ProbePort(host string, port int, timeout time.Duration) Result {
	check := fmt.Sprintf("tcp %s:%d", host, port)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err == nil {
		conn.Close()
		return Result{Check: check, OK: true, Detail: "port open and accepting connections"}
	}

	detail := err.Error()
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		detail = "connection refused: device reachable but nothing listening; check that the control firmware is running"
	case errors.As(err, &netErr) && netErr.Timeout():
		detail = "connection timeout: device unreachable or a firewall is blocking"
	}
	return Result{Check: check, OK: false, Detail: detail}
}

// Ping checks host reachability with the system ping binary.
func Ping(ctx context.Context, host string, timeout time.Duration) Result {
	check := "ping " + host
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", "-w", strconv.Itoa(secs*1000), host)
	} else {
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(secs), host)
	}

	if err := cmd.Run(); err != nil {
		return Result{Check: check, OK: false, Detail: "host not reachable: " + err.Error()}
	}
	return Result{Check: check, OK: true, Detail: "host reachable"}
}

// ScanPorts probes each candidate port and returns the open ones.
func ScanPorts(host string, ports []int, timeout time.Duration) []int {
	var open []int
	for _, p := range ports {
		if r := ProbePort(host, p, timeout); r.OK {
			open = append(open, p)
		}
	}
	return open
}

// RunAll executes the full diagnostic sequence against the robot
// link: ping, the configured control port, and a scan over common
// fallback ports.
func RunAll(ctx context.Context, host string, port int, timeout time.Duration) []Result {
	results := []Result{
		Ping(ctx, host, timeout),
		ProbePort(host, port, timeout),
	}

	candidates := []int{port, 80, 8000, 8080, 8888}
	open := ScanPorts(host, candidates, timeout)
	scan := Result{Check: fmt.Sprintf("scan %s %v", host, candidates)}
	if len(open) > 0 {
		scan.OK = true
		scan.Detail = fmt.Sprintf("open ports: %v", open)
	} else {
		scan.Detail = "no candidate ports open"
	}
	results = append(results, scan)

	for _, r := range results {
		ev := log.Info()
		if !r.OK {
			ev = log.Warn()
		}
		ev.Str("check", r.Check).Bool("ok", r.OK).Msg(r.Detail)
	}
	return results
}
