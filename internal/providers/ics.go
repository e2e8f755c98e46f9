package providers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voxd/internal/fault"
)

const icsStamp = "20060102T150405Z"

// ICSFile keeps scheduled events in a local iCalendar file that any desktop
// calendar can subscribe to.
type ICSFile struct {
	Path string

	mu  sync.Mutex
	now func() time.Time
}

func NewICSFile(path string) *ICSFile {
	return &ICSFile{Path: path, now: time.Now}
}

func (c *ICSFile) Schedule(_ context.Context, title string, start, end time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.read()
	if err != nil {
		return "", fault.Provider("calendar", fault.KindTransport, err)
	}

	id := uuid.NewString()
	event := []string{
		"BEGIN:VEVENT",
		"UID:" + id + "@voxd",
		"DTSTAMP:" + c.now().UTC().Format(icsStamp),
		"DTSTART:" + start.UTC().Format(icsStamp),
		"DTEND:" + end.UTC().Format(icsStamp),
		"SUMMARY:" + escapeText(title),
		"END:VEVENT",
	}

	// Insert before the closing END:VCALENDAR.
	out := make([]string, 0, len(lines)+len(event))
	out = append(out, lines[:len(lines)-1]...)
	out = append(out, event...)
	out = append(out, lines[len(lines)-1])

	if err := c.write(out); err != nil {
		return "", fault.Provider("calendar", fault.KindTransport, err)
	}
	return id, nil
}

func (c *ICSFile) read() ([]string, error) {
	f, err := os.Open(c.Path)
	if os.IsNotExist(err) {
		return []string{
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//voxd//EN",
			"END:VCALENDAR",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimRight(sc.Text(), "\r"); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 || lines[len(lines)-1] != "END:VCALENDAR" {
		return nil, fmt.Errorf("%s: not an iCalendar file", c.Path)
	}
	return lines, nil
}

func (c *ICSFile) write(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return err
	}
	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.Path)
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

func escapeText(s string) string { return icsEscaper.Replace(s) }
