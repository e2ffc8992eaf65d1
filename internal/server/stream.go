package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/overlay"
	"github.com/ayusman/bebas/internal/pipeline"
	"gocv.io/x/gocv"
)

// streamInterval paces the preview at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the camera preview as MJPEG, mirrored and with the latest
// skeleton drawn over it.
type StreamHandler struct {
	tap       *capture.Tap
	latest    func() (pipeline.FrameResult, bool)
	projector overlay.Projector
}

// NewStreamHandler creates a StreamHandler reading frames from tap. latest may be nil,
// in which case frames are sent without an overlay.
func NewStreamHandler(tap *capture.Tap, latest func() (pipeline.FrameResult, bool), pr overlay.Projector) *StreamHandler {
	return &StreamHandler{tap: tap, latest: latest, projector: pr}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	unsubscribe := h.tap.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, seq, ok := h.tap.Latest()
		if !ok {
			continue
		}
		if seq == lastSeq {
			frame.Close()
			continue
		}
		lastSeq = seq

		buf, err := h.encode(frame)
		frame.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		_, werr := w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()
		if werr != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// encode renders the overlay and returns the JPEG bytes.
func (h *StreamHandler) encode(frame gocv.Mat) (*gocv.NativeByteBuffer, error) {
	annotated := gocv.NewMat()
	defer annotated.Close()

	if res, ok := h.latestResult(); ok {
		overlay.Render(frame, &annotated, res, h.projector)
	} else {
		overlay.Mirror(frame, &annotated)
	}
	return gocv.IMEncode(gocv.JPEGFileExt, annotated)
}

func (h *StreamHandler) latestResult() (pipeline.FrameResult, bool) {
	if h.latest == nil {
		return pipeline.FrameResult{}, false
	}
	return h.latest()
}
