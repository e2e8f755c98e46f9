package providers

import (
	"context"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voxd/internal/fault"
	"voxd/internal/tools"
)

// Maildir reads message headers from a local Maildir, as kept by fetchmail,
// mbsync or offlineimap.
type Maildir struct {
	Root string
}

func NewMaildir(root string) *Maildir {
	return &Maildir{Root: root}
}

// Latest returns the n most recent messages from new/ and cur/, newest first.
func (m *Maildir) Latest(ctx context.Context, n int) ([]tools.MailSummary, error) {
	var all []tools.MailSummary
	for _, sub := range []string{"new", "cur"} {
		entries, err := os.ReadDir(filepath.Join(m.Root, sub))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fault.Provider("maildir", fault.KindTransport, err)
		}

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, fault.FromTransport("maildir", err)
			}
			if e.IsDir() {
				continue
			}
			s, ok := readSummary(filepath.Join(m.Root, sub, e.Name()))
			if ok {
				all = append(all, s)
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

var headerDecoder = new(mime.WordDecoder)

func readSummary(path string) (tools.MailSummary, bool) {
	f, err := os.Open(path)
	if err != nil {
		return tools.MailSummary{}, false
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return tools.MailSummary{}, false
	}

	s := tools.MailSummary{
		From:    senderName(msg.Header.Get("From")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
	}
	if d, err := msg.Header.Date(); err == nil {
		s.Date = d
	} else if fi, err := f.Stat(); err == nil {
		s.Date = fi.ModTime()
	}
	return s, true
}

func senderName(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(decodeHeader(from))
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

func decodeHeader(v string) string {
	out, err := headerDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return out
}
