package notify

import (
	"context"
	"os/exec"
)

// Desktop pops up a notification via notify-send.
type Desktop struct {
	AppName string

	run func(ctx context.Context, name string, args ...string) error
}

func NewDesktop(appName string) *Desktop {
	return &Desktop{AppName: appName, run: func(ctx context.Context, name string, args ...string) error {
		return exec.CommandContext(ctx, name, args...).Run()
	}}
}

func (d *Desktop) Send(ctx context.Context, title, body string) error {
	return d.run(ctx, "notify-send", "--app-name="+d.AppName, "--urgency=normal", title, body)
}
