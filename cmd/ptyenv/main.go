// ptyenv sets up the development environment: three socat pseudo-terminal
// pairs standing in for the application, pump and router serial links, so
// the daemon can be exercised without hardware. Runs until interrupted.
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"time"
)

var pairs = [][2]string{
	{"/tmp/app1", "/tmp/app2"},
	{"/tmp/pump1", "/tmp/pump2"},
	{"/tmp/router1", "/tmp/router2"},
}

func main() {
	// Stale socat processes hold the pty links.
	_ = exec.Command("pkill", "-x", "socat").Run()

	procs := make([]*exec.Cmd, 0, len(pairs))
	for _, pr := range pairs {
		cmd := exec.Command("socat", "-d", "-d",
			fmt.Sprintf("pty,raw,echo=1,link=%s", pr[0]),
			fmt.Sprintf("pty,raw,echo=1,link=%s", pr[1]),
		)
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			log.Fatalf("failed to start socat for %s: %s", pr[0], err)
		}
		procs = append(procs, cmd)
		log.Printf("linked %s <-> %s", pr[0], pr[1])
	}
	// Give socat a moment to create the links.
	time.Sleep(time.Second)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	for _, p := range procs {
		_ = p.Process.Kill()
	}
}
