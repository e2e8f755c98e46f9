package speech

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxd/internal/conversation"
	"voxd/internal/fault"
	"voxd/pkg/audioconv"
)

// Script replays prerecorded input. Each .txt file contributes one
// utterance per non-empty line; any other file is decoded as audio and
// transcribed. Once everything has been played the input is closed.
type Script struct {
	STT Transcriber

	queue []string
	lines []string
}

func NewScript(paths []string, stt Transcriber) *Script {
	return &Script{STT: stt, queue: append([]string(nil), paths...)}
}

func (s *Script) Listen(ctx context.Context, _ conversation.Window) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for len(s.lines) == 0 {
		if len(s.queue) == 0 {
			return "", fault.ErrInputClosed
		}
		path := s.queue[0]
		s.queue = s.queue[1:]

		if strings.EqualFold(filepath.Ext(path), ".txt") {
			lines, err := readLines(path)
			if err != nil {
				return "", fmt.Errorf("%w: %v", fault.ErrSpeechService, err)
			}
			s.lines = lines
			continue
		}
		return s.transcribe(ctx, path)
	}

	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *Script) transcribe(ctx context.Context, path string) (string, error) {
	if s.STT == nil {
		return "", fmt.Errorf("%w: no transcriber for %s", fault.ErrSpeechService, path)
	}
	pcm, err := audioconv.DecodeFile(path, audioconv.Options{MaxSamples: audioconv.TargetRate * 30})
	if err != nil {
		return "", fmt.Errorf("%w: %v", fault.ErrSpeechService, err)
	}
	if len(pcm) == 0 {
		return "", fault.ErrListenTimeout
	}
	text, err := s.STT.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fault.ErrSpeechService, err)
	}
	if text == "" {
		return "", fault.ErrUnintelligible
	}
	return text, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" && !strings.HasPrefix(l, "#") {
			out = append(out, l)
		}
	}
	return out, sc.Err()
}
