package main

import (
	"syscall"
	"testing"
	"time"

	"github.com/temoto/alive/v2"
)

func TestStopOnSignal(t *testing.T) {
	// not Parallel, sends signal to whole process
	a := alive.NewAlive()
	stopOnSignal(a, syscall.SIGUSR1)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}
	select {
	case <-a.StopChan():
	case <-time.After(5 * time.Second):
		t.Fatal("alive not stopped by signal")
	}
	a.Wait()
}
