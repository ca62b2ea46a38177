package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

const chunkSize = 4096

// DetectCapabilities reports which capture commands resolve on PATH.
func DetectCapabilities(recordCmd, recognizerCmd string) (Capabilities, bool) {
	return Capabilities{SpeechRecognition: resolvable(recognizerCmd)}, resolvable(recordCmd)
}

func resolvable(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	_, err := exec.LookPath(fields[0])
	return err == nil
}

// process runs a shell command and tracks whether it was asked to stop.
type process struct {
	command string
	cmd     *exec.Cmd
	stdout  io.ReadCloser

	mu      sync.Mutex
	stopped bool
}

func (p *process) start(ctx context.Context) error {
	if strings.TrimSpace(p.command) == "" {
		return errors.New("no capture command configured")
	}
	p.cmd = exec.CommandContext(ctx, "sh", "-c", p.command)
	p.cmd.Stderr = io.Discard
	setProcessGroup(p.cmd)
	out, err := p.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	p.stdout = out
	return p.cmd.Start()
}

// stop sends SIGINT to the whole process group so recorders can finalize
// their output.
func (p *process) stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if p.cmd != nil {
		signalGroup(p.cmd, os.Interrupt)
	}
}

func (p *process) close() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	if err := signalGroup(p.cmd, os.Kill); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// wait reaps the process. An exit caused by stop is not an error.
func (p *process) wait() error {
	err := p.cmd.Wait()
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return nil
	}
	return err
}

// ExecRecorder captures audio from a command that writes the recording to
// stdout (e.g. `rec -q -t wav -`).
type ExecRecorder struct {
	process
}

func NewExecRecorder(command string) *ExecRecorder {
	return &ExecRecorder{process{command: command}}
}

func (r *ExecRecorder) Start(ctx context.Context, emit func(Event)) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	go func() {
		buf := make([]byte, chunkSize)
		for {
			n, err := r.stdout.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				emit(Event{Kind: EventData, Data: chunk})
			}
			if err != nil {
				break
			}
		}
		if err := r.wait(); err != nil {
			emit(Event{Kind: EventError, Err: fmt.Errorf("recorder exited: %w", err)})
			return
		}
		emit(Event{Kind: EventPlatformEnd})
	}()
	return nil
}

func (r *ExecRecorder) Stop()        { r.stop() }
func (r *ExecRecorder) Close() error { return r.close() }

// ExecRecognizer runs a streaming speech recognizer that prints one
// transcript line per hypothesis; the last line is the final text.
type ExecRecognizer struct {
	process
}

func NewExecRecognizer(command string) *ExecRecognizer {
	return &ExecRecognizer{process{command: command}}
}

func (r *ExecRecognizer) Start(ctx context.Context, emit func(Event)) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	go func() {
		var last string
		scanner := bufio.NewScanner(r.stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			last = line
			emit(Event{Kind: EventData, Text: line})
		}
		if err := r.wait(); err != nil {
			emit(Event{Kind: EventError, Err: fmt.Errorf("recognizer exited: %w", err)})
			return
		}
		emit(Event{Kind: EventPlatformEnd, Text: last})
	}()
	return nil
}

func (r *ExecRecognizer) Stop()        { r.stop() }
func (r *ExecRecognizer) Close() error { return r.close() }
