package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// PCM wraps an ffmpeg subprocess decoding a remote media URL to raw s16le
// stereo 48 kHz PCM on stdout.
type PCM struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
}

// StartPCM launches ffmpeg against mediaURL. The caller owns the returned
// stream and must Close it.
func StartPCM(ctx context.Context, mediaURL string) (*PCM, error) {
	ctx2, cancel := context.WithCancel(ctx)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
	}
	if strings.HasPrefix(mediaURL, "http") {
		args = append(args, "-headers", requestHeaders())
	}
	args = append(args,
		"-i", mediaURL,
		"-vn",
		"-ac", "2",
		"-ar", "48000",
		"-f", "s16le",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx2, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg start: %w (stderr: %s)", err, stderr.String())
	}

	return &PCM{cmd: cmd, stdout: stdout, stderr: stderr, cancel: cancel}, nil
}

func (p *PCM) Reader() io.Reader { return p.stdout }

func (p *PCM) Close() {
	p.cancel()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
}
