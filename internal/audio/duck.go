package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	log "log/slog"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id, from, to int
}

// Ducker lowers every PulseAudio sink input except our own while the
// assistant is listening, and puts them back afterwards.
type Ducker struct {
	mu       sync.Mutex
	ducked   bool
	original map[int]int

	self     []string
	factor   float64
	floor    int
	duration time.Duration

	pactl func(ctx context.Context, args ...string) ([]byte, error)
}

func NewDucker(self []string, factor float64, floor int, duration time.Duration) *Ducker {
	return &Ducker{
		self:     slices.Clone(self),
		factor:   factor,
		floor:    min(max(floor, 0), maxVolume),
		duration: duration,
		original: make(map[int]int),
		pactl:    runPactl,
	}
}

func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * d.factor))
		to = min(max(to, d.floor), maxVolume)
		d.original[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: to})
	}

	d.ducked = true
	return d.fade(ctx, fades)
}

// Restore fades ducked inputs back to their saved volume. Inputs that
// appeared after Duck are left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		if orig, ok := d.original[in.ID]; ok {
			fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
		}
	}

	d.ducked = false
	d.original = make(map[int]int)
	return d.fade(ctx, fades)
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var others []sinkInput
	for _, in := range parseSinkInputs(string(out)) {
		if !slices.Contains(d.self, in.AppName) {
			others = append(others, in)
		}
	}
	return others, nil
}

func (d *Ducker) fade(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	steps := int(d.duration / (10 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	pause := d.duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			v = min(max(v, 0), maxVolume)
			if _, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(f.id), fmt.Sprintf("%d%%", v)); err != nil {
				return fmt.Errorf("set volume of %d: %w", f.id, err)
			}
		}

		if i < steps {
			time.Sleep(pause)
		}
	}
	return nil
}

// parseSinkInputs reads the output of `pactl list sink-inputs`.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	var res []sinkInput

	for _, block := range blocks[1:] {
		head, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id, Volume: -1}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume < 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if name, ok := strings.CutPrefix(line, "application.name = "); ok && in.AppName == "" {
				in.AppName = strings.Trim(name, `"`)
			}
		}

		if in.Volume < 0 {
			continue
		}
		res = append(res, in)
	}
	return res
}

func runPactl(ctx context.Context, args ...string) ([]byte, error) {
	log.Debug("pactl", "args", args)
	return exec.CommandContext(ctx, "pactl", args...).Output()
}
