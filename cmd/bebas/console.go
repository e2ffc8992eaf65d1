package main

import (
	"io"
	"sync"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/skeleton"
	"github.com/fatih/color"
)

// console prints each new sign once, until it changes.
type console struct {
	w     io.Writer
	mu    sync.Mutex
	last  string
	known *color.Color
	other *color.Color
	fail  *color.Color
}

func newConsole(w io.Writer) *console {
	return &console{
		w:     w,
		known: color.New(color.FgGreen, color.Bold),
		other: color.New(color.FgYellow),
		fail:  color.New(color.FgRed),
	}
}

func (c *console) OnPoints(skeleton.Points) {}

func (c *console) OnLabel(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label == c.last {
		return
	}
	c.last = label

	if gesture.InVocabulary(label) {
		c.known.Fprintf(c.w, "sign: %s\n", label)
		return
	}
	c.other.Fprintf(c.w, "sign: %s\n", label)
}

func (c *console) OnCaptureError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = ""
	c.fail.Fprintf(c.w, "camera lost: %v\n", err)
}
