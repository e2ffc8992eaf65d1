package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	var sent bytes.Buffer
	reply := bufio.NewReader(strings.NewReader("{\"hands\":[]}\n{\"hands\":[{}]}\n"))

	line, err := roundTrip(&sent, reply, []byte("jpeg"))
	if err != nil {
		t.Fatalf("roundTrip() error = %v", err)
	}
	if line != "{\"hands\":[]}\n" {
		t.Errorf("line = %q", line)
	}

	frame := sent.Bytes()
	if n := binary.BigEndian.Uint32(frame[:4]); n != 4 {
		t.Errorf("length prefix = %d, want 4", n)
	}
	if string(frame[4:]) != "jpeg" {
		t.Errorf("payload = %q", frame[4:])
	}

	t.Run("closed service", func(t *testing.T) {
		if _, err := roundTrip(&sent, bufio.NewReader(strings.NewReader("")), []byte("x")); err == nil {
			t.Error("expected error when the service closes stdout")
		}
	})
}

// shellDetector returns a detector whose service is a shell script that reads and
// discards its input.
func shellDetector(t *testing.T, idle time.Duration) *MediaPipeDetector {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	script := filepath.Join(t.TempDir(), scriptName)
	if err := os.WriteFile(script, []byte("exec cat > /dev/null\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := NewMediaPipeDetector(Config{ScriptPath: script, PythonPath: "/bin/sh", IdleTimeout: idle})
	if err != nil {
		t.Fatalf("NewMediaPipeDetector() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func (d *MediaPipeDetector) running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// use starts the service if needed and re-arms the idle timer, as a detection does.
func (d *MediaPipeDetector) use(t *testing.T) uint64 {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureStarted(); err != nil {
		t.Fatalf("ensureStarted() error = %v", err)
	}
	d.resetIdleTimer()
	return d.idleGen
}

func TestMediaPipeDetector_IdleShutdown(t *testing.T) {
	t.Run("stale timer keeps a service used since", func(t *testing.T) {
		d := shellDetector(t, time.Hour)

		stale := d.use(t)
		current := d.use(t)

		d.idleShutdown(stale)
		if !d.running() {
			t.Fatal("stale idle timer stopped the service")
		}

		d.idleShutdown(current)
		if d.running() {
			t.Error("current idle timer did not stop the service")
		}
	})

	t.Run("stale timer keeps a restarted service", func(t *testing.T) {
		d := shellDetector(t, time.Hour)

		stale := d.use(t)
		d.mu.Lock()
		d.kill()
		if err := d.ensureStarted(); err != nil {
			d.mu.Unlock()
			t.Fatalf("restart: %v", err)
		}
		d.mu.Unlock()

		d.idleShutdown(stale)
		if !d.running() {
			t.Error("timer armed for the old process stopped the new one")
		}
	})

	t.Run("timer stops an idle service", func(t *testing.T) {
		d := shellDetector(t, 20*time.Millisecond)
		d.use(t)

		deadline := time.Now().Add(2 * time.Second)
		for d.running() {
			if time.Now().After(deadline) {
				t.Fatal("service still running after the idle timeout")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})
}
