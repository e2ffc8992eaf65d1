package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/skeleton"
	"gocv.io/x/gocv"
	"golang.org/x/xerrors"
)

const scriptName = "mediapipe_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames are sent as a 4-byte big-endian length followed by JPEG bytes; the service
// answers with one JSON line per frame.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
	// idleGen changes whenever the idle timer is replaced or the process changes, so a
	// timer that fired late cannot stop a process that was used after it was armed.
	idleGen uint64
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, xerrors.Errorf("%s not found", scriptName)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, xerrors.Errorf("mediapipe script: %w", err)
	}
	if config.MaxHands <= 0 || config.MaxHands > skeleton.NumSlots {
		config.MaxHands = skeleton.NumSlots
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect analyzes a frame and returns detected hand skeletons.
func (d *MediaPipeDetector) Detect(ctx context.Context, frame capture.Frame) ([]skeleton.Hand, error) {
	if frame.Mat == nil || frame.Mat.Empty() {
		return nil, xerrors.Errorf("frame %d has no image: %w", frame.Seq, ErrExtraction)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame.Mat)
	if err != nil {
		return nil, xerrors.Errorf("encode frame: %v: %w", err, ErrExtraction)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrExtraction)
	}

	type reply struct {
		line string
		err  error
	}
	done := make(chan reply, 1)
	data := buf.GetBytes()
	stdin, stdout := d.stdin, d.stdout

	go func() {
		line, err := roundTrip(stdin, stdout, data)
		done <- reply{line, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		// The stream is out of step once a request is abandoned; restart on next use.
		d.kill()
		<-done
		return nil, xerrors.Errorf("detect frame %d: %v: %w", frame.Seq, ctx.Err(), ErrExtraction)
	}

	if r.err != nil {
		d.kill()
		return nil, xerrors.Errorf("detect frame %d: %v: %w", frame.Seq, r.err, ErrExtraction)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal([]byte(r.line), &response); err != nil {
		return nil, xerrors.Errorf("parse response: %v: %w", err, ErrExtraction)
	}
	if response.Error != "" {
		return nil, xerrors.Errorf("mediapipe: %s: %w", response.Error, ErrExtraction)
	}

	n := len(response.Hands)
	if n > d.config.MaxHands {
		n = d.config.MaxHands
	}
	result := make([]skeleton.Hand, n)
	for i := 0; i < n; i++ {
		result[i] = response.Hands[i].toHand()
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// roundTrip sends one frame and reads the reply. It only touches the streams it is
// given, so a concurrent kill cannot race with it.
func roundTrip(stdin io.Writer, stdout *bufio.Reader, data []byte) (string, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := stdin.Write(length); err != nil {
		return "", xerrors.Errorf("write length: %w", err)
	}
	if _, err := stdin.Write(data); err != nil {
		return "", xerrors.Errorf("write data: %w", err)
	}

	line, err := stdout.ReadString('\n')
	if err != nil {
		return "", xerrors.Errorf("read response: %w", err)
	}
	return line, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := d.config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return xerrors.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return xerrors.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return xerrors.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()
	d.idleGen++

	lgr.Logger.Debug("mediapipe service started", slog.String("script", d.scriptPath))
	return nil
}

func (d *MediaPipeDetector) kill() {
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.shutdown()
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	d.idleGen++

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleGen++
	gen := d.idleGen
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() { d.idleShutdown(gen) })
}

// idleShutdown stops the service if nothing re-armed the idle timer since gen.
func (d *MediaPipeDetector) idleShutdown(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.idleGen {
		return
	}
	if err := d.shutdown(); err != nil {
		lgr.Logger.Debug("mediapipe service stopped", lgr.Err(err))
	}
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".bebas", "scripts", scriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".bebas/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service. Points follow the
// MediaPipe landmark order, wrist first.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// mediaPipeOrder maps MediaPipe landmark indices to catalog joints.
var mediaPipeOrder = [skeleton.NumJoints]skeleton.Joint{
	skeleton.Wrist,
	skeleton.ThumbCMC, skeleton.ThumbMP, skeleton.ThumbIP, skeleton.ThumbTip,
	skeleton.IndexMCP, skeleton.IndexPIP, skeleton.IndexDIP, skeleton.IndexTip,
	skeleton.MiddleMCP, skeleton.MiddlePIP, skeleton.MiddleDIP, skeleton.MiddleTip,
	skeleton.RingMCP, skeleton.RingPIP, skeleton.RingDIP, skeleton.RingTip,
	skeleton.LittleMCP, skeleton.LittlePIP, skeleton.LittleDIP, skeleton.LittleTip,
}

// toHand converts MediaPipe image coordinates (x right, y down) into the capability
// space the coordinate mapper expects, where x runs down the sensor and y across it.
// Joints without their own visibility score inherit the hand score. The MediaPipe
// Hands solution fills visibility only on pose landmarks, so with the bundled service
// every joint of a hand carries the hand score and confidence gating acts per hand.
// Missing points stay at zero confidence.
func (h jsonHand) toHand() skeleton.Hand {
	hand := skeleton.Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < skeleton.NumJoints && i < len(h.Points); i++ {
		p := h.Points[i]
		conf := h.Score
		if p.Visibility != nil {
			conf = *p.Visibility
		}
		hand.Landmarks[mediaPipeOrder[i]] = skeleton.Landmark{
			X:          p.Y,
			Y:          p.X,
			Confidence: clamp01(conf),
		}
	}

	return hand
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
