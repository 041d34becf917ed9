package recognizer

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const scriptName = "gesture_service.py"

// readyLine is the first line the service prints once the model is loaded.
const readyLine = "ready"

// MediaPipeRecognizer implements Recognizer using a Python MediaPipe
// gesture recognizer subprocess.
//
// Frames are sent on stdin as an 8-byte big-endian timestamp, a 4-byte
// big-endian length and the JPEG bytes. Each frame is answered with one
// JSON line on stdout.
type MediaPipeRecognizer struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
}

// NewMediaPipeRecognizer creates a new MediaPipe recognizer.
// The Python process is started by Load or lazily on first recognition.
func NewMediaPipeRecognizer(config Config) (*MediaPipeRecognizer, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findServiceScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", scriptName)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("service script: %w", err)
	}

	return &MediaPipeRecognizer{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Load starts the service and blocks until it reports the model is loaded.
// With no IdleTimeout configured the service then stays up until Close.
func (r *MediaPipeRecognizer) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureStarted(); err != nil {
		return err
	}
	r.resetIdleTimer()
	return nil
}

// Recognize analyzes a frame and returns the detected hands and gestures.
func (r *MediaPipeRecognizer) Recognize(frame *gocv.Mat, timestampMs int64) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 12)
	binary.BigEndian.PutUint64(header[:8], uint64(timestampMs))
	binary.BigEndian.PutUint32(header[8:], uint32(len(data)))

	if _, err := r.stdin.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := r.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := r.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := parseResponse([]byte(line))
	if err != nil {
		return nil, err
	}
	result.TimestampMs = timestampMs

	r.lastUsed = time.Now()
	r.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (r *MediaPipeRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdown()
}

func (r *MediaPipeRecognizer) ensureStarted() error {
	if r.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	r.cmd = exec.Command(pythonPath, r.scriptPath,
		"--num-hands", strconv.Itoa(r.config.NumHands),
		"--min-detection-confidence", strconv.FormatFloat(r.config.MinDetectionConf, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(r.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	r.cmd.Stderr = os.Stderr

	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("start gesture service: %w", err)
	}

	reader := bufio.NewReader(stdout)
	line, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != readyLine {
		stdin.Close()
		r.cmd.Wait()
		r.cmd = nil
		if err == nil {
			err = fmt.Errorf("unexpected handshake %q", strings.TrimSpace(line))
		}
		return fmt.Errorf("gesture service handshake: %w", err)
	}

	r.stdin = stdin
	r.stdout = reader
	r.started = true
	r.lastUsed = time.Now()

	return nil
}

func (r *MediaPipeRecognizer) shutdown() error {
	if !r.started {
		return nil
	}

	if r.idleTimer != nil {
		r.idleTimer.Stop()
		r.idleTimer = nil
	}

	if r.stdin != nil {
		r.stdin.Close()
	}

	err := r.cmd.Wait()
	r.started = false
	r.cmd = nil
	r.stdin = nil
	r.stdout = nil

	return err
}

func (r *MediaPipeRecognizer) resetIdleTimer() {
	if r.config.IdleTimeout <= 0 {
		return
	}
	if r.idleTimer != nil {
		r.idleTimer.Stop()
	}
	r.idleTimer = time.AfterFunc(r.config.IdleTimeout, r.onIdle)
}

// onIdle stops the service unless a frame arrived after the timer fired.
// A fired timer cannot be stopped, so its callback may be waiting on the
// lock while Recognize runs.
func (r *MediaPipeRecognizer) onIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || time.Since(r.lastUsed) < r.config.IdleTimeout {
		return
	}
	r.shutdown()
}

// running reports whether the service process is up.
func (r *MediaPipeRecognizer) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".handcam", "scripts", scriptName),
	}

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
		filepath.Join(os.Getenv("HOME"), ".handcam/venv/bin/python"),
	}

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

// jsonResponse is the line format written by the service.
type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

type jsonHand struct {
	Landmarks  []Point3D  `json:"landmarks"`
	Handedness Category   `json:"handedness"`
	Gestures   []Category `json:"gestures"`
}

func parseResponse(line []byte) (*Result, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("gesture service: %s", resp.Error)
	}

	result := &Result{Hands: make([]Hand, len(resp.Hands))}
	for i, h := range resp.Hands {
		result.Hands[i] = h.toHand()
	}
	return result, nil
}

func (h jsonHand) toHand() Hand {
	hand := Hand{
		Handedness: h.Handedness,
		Gestures:   h.Gestures,
	}

	for i := 0; i < NumLandmarks && i < len(h.Landmarks); i++ {
		hand.Landmarks[i] = h.Landmarks[i]
	}

	return hand
}
