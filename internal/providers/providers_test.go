package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxd/internal/fault"
	"voxd/internal/intent"
)

const wttrBody = `{
  "current_condition": [{
    "temp_C": "18", "temp_F": "64", "FeelsLikeC": "17", "FeelsLikeF": "63",
    "humidity": "60", "windspeedKmph": "11",
    "weatherDesc": [{"value": "Partly cloudy"}]
  }]
}`

func TestWttrCurrent(t *testing.T) {
	var gotPath, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("format")
		w.Write([]byte(wttrBody))
	}))
	defer srv.Close()

	w := NewWttr(srv.Client())
	w.BaseURL = srv.URL + "/"

	r, err := w.Current(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, "/New York", gotPath)
	assert.Equal(t, "j1", gotFormat)
	assert.Equal(t, "Partly cloudy", r.Description)
	assert.Equal(t, 18, r.TempC)
	assert.Equal(t, 64, r.TempF)
	assert.Equal(t, 60, r.Humidity)
	assert.Equal(t, 11, r.WindKmph)

	_, err = w.Current(context.Background(), intent.CurrentLocation)
	require.NoError(t, err)
	assert.Equal(t, "/", gotPath)
}

func TestWttrErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   fault.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, "", fault.KindRateLimit},
		{"server error", http.StatusInternalServerError, "", fault.KindBadResponse},
		{"bad json", http.StatusOK, "<html>", fault.KindBadResponse},
		{"no conditions", http.StatusOK, `{"current_condition": []}`, fault.KindBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			w := NewWttr(srv.Client())
			w.BaseURL = srv.URL + "/"

			_, err := w.Current(context.Background(), "Paris")
			var pe *fault.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
		})
	}
}

func TestNewsAPIHeadlines(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"One","description":"d1"},
			{"title":"[Removed]"},
			{"title":"Two"},
			{"title":"Three"},
			{"title":"Four"}
		]}`))
	}))
	defer srv.Close()

	n := NewNewsAPI(srv.Client(), "secret")
	n.BaseURL = srv.URL

	items, err := n.Headlines(context.Background(), "technology", 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "One", items[0].Title)
	assert.Equal(t, "d1", items[0].Description)
	assert.Equal(t, "Three", items[2].Title)

	assert.Equal(t, "secret", got.Header.Get("X-Api-Key"))
	assert.Equal(t, "technology", got.URL.Query().Get("category"))
	assert.Equal(t, "3", got.URL.Query().Get("pageSize"))

	_, err = n.Headlines(context.Background(), "general", 3)
	require.NoError(t, err)
	assert.Empty(t, got.URL.Query().Get("category"))
}

func TestNewsAPIUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewNewsAPI(srv.Client(), "bad")
	n.BaseURL = srv.URL

	_, err := n.Headlines(context.Background(), "general", 3)
	assert.Equal(t, fault.KindAuth, fault.KindOf(err))
}

func TestICSFileSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal", "voxd.ics")
	c := NewICSFile(path)
	c.now = func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }

	start := time.Date(2025, 3, 13, 15, 0, 0, 0, time.UTC)
	id1, err := c.Schedule(context.Background(), "Dentist, checkup", start, start.Add(time.Hour))
	require.NoError(t, err)
	id2, err := c.Schedule(context.Background(), "Lunch", start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)

	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(body, "END:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:Dentist\\, checkup")
	assert.Contains(t, body, "DTSTART:20250313T150000Z")
	assert.Contains(t, body, "DTEND:20250313T160000Z")
	assert.Contains(t, body, "UID:"+id1+"@voxd")
}

func TestICSFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ics")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := NewICSFile(path).Schedule(context.Background(), "x", time.Now(), time.Now())
	var pe *fault.ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestSMTPSend(t *testing.T) {
	s := NewSMTP("mail.example.com", 587, "me@example.com", "pw", "")
	s.now = func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "me@example.com", from)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "jane@example.com", "Hi", "running late"))
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, []string{"jane@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nrunning late\r\n"))

	err := s.Send(context.Background(), "jane@example.com\r\nBcc: x@y.z", "Hi", "")
	assert.Error(t, err)
}

func TestSMTPSendErrors(t *testing.T) {
	s := NewSMTP("mail.example.com", 587, "me", "pw", "me@example.com")

	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return &textproto.Error{Code: 535, Msg: "auth failed"}
	}
	assert.Equal(t, fault.KindAuth, fault.KindOf(s.Send(context.Background(), "a@b.c", "s", "b")))

	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	assert.Equal(t, fault.KindTransport, fault.KindOf(s.Send(context.Background(), "a@b.c", "s", "b")))
}

func TestSMTPSendOutlivesCancel(t *testing.T) {
	s := NewSMTP("mail.example.com", 587, "me", "pw", "me@example.com")
	ctx, cancel := context.WithCancel(context.Background())

	sent := 0
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		cancel()
		sent++
		return nil
	}
	require.NoError(t, s.Send(ctx, "a@b.c", "s", "b"), "a delivered mail is reported as sent")
	assert.Equal(t, 1, sent)

	err := s.Send(ctx, "a@b.c", "s", "b")
	assert.Error(t, err)
	assert.Equal(t, 1, sent, "nothing is sent once ctx is done")
}

func TestMediaURL(t *testing.T) {
	u, ok := MediaURL("youtube", "bohemian rhapsody")
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/results?search_query=bohemian+rhapsody", u)

	u, ok = MediaURL("spotify", "bohemian rhapsody")
	require.True(t, ok)
	assert.Equal(t, "https://open.spotify.com/search/bohemian%20rhapsody", u)

	u, ok = MediaURL("apple", "")
	require.True(t, ok)
	assert.Equal(t, "https://music.apple.com/", u)

	_, ok = MediaURL("tidal", "x")
	assert.False(t, ok)
}

func TestBrowserOpen(t *testing.T) {
	b := NewBrowser("")
	var got []string
	b.run = func(_ context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}

	require.NoError(t, b.Open(context.Background(), "youtube", "jazz"))
	assert.Equal(t, []string{"xdg-open", "https://www.youtube.com/results?search_query=jazz"}, got)

	err := b.Open(context.Background(), "tidal", "jazz")
	assert.ErrorIs(t, err, errUnknownPlatform)
}

func TestMaildirLatest(t *testing.T) {
	root := t.TempDir()
	for _, sub := range []string{"new", "cur", "tmp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, sub), 0o755))
	}

	write := func(sub, name, from, subject, date string) {
		msg := "From: " + from + "\r\nSubject: " + subject + "\r\nDate: " + date + "\r\n\r\nbody\r\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, sub, name), []byte(msg), 0o644))
	}
	write("cur", "1", "Ann <ann@example.com>", "Old news", "Mon, 10 Mar 2025 09:00:00 +0000")
	write("new", "2", "bob@example.com", "=?UTF-8?Q?Caf=C3=A9?=", "Wed, 12 Mar 2025 09:00:00 +0000")
	write("new", "3", "Cy <cy@example.com>", "Middle", "Tue, 11 Mar 2025 09:00:00 +0000")
	require.NoError(t, os.WriteFile(filepath.Join(root, "new", "junk"), []byte("\x00"), 0o644))

	got, err := NewMaildir(root).Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob@example.com", got[0].From)
	assert.Equal(t, "Café", got[0].Subject)
	assert.Equal(t, "Cy", got[1].From)

	got, err = NewMaildir(filepath.Join(root, "missing")).Latest(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
