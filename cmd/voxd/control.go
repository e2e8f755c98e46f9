package main

import (
	"fmt"
	"strings"
	"time"

	"voxd/internal/conversation"
	"voxd/internal/ipc"
	"voxd/internal/timer"
)

type controllable interface {
	State() conversation.State
	Request(r conversation.Request) bool
}

type timerTable interface {
	Cancel(id int) bool
	Active() []timer.Handle
}

func controlHandler(conv controllable, timers timerTable) ipc.Handler {
	return func(msg ipc.ControlMessage) ipc.Reply {
		switch msg.Cmd {
		case ipc.CmdWake:
			return request(conv, conversation.RequestWake)
		case ipc.CmdSleep:
			return request(conv, conversation.RequestSleep)
		case ipc.CmdCancel:
			if !timers.Cancel(msg.ID) {
				return ipc.Fail("no pending timer %d", msg.ID)
			}
			return ipc.Ok("cancelled timer %d", msg.ID)
		case ipc.CmdTimers:
			return ipc.Ok("%s", describeTimers(timers.Active(), time.Now()))
		case ipc.CmdStatus:
			return ipc.Ok("%s, %d timers pending", conv.State(), len(timers.Active()))
		default:
			return ipc.Fail("unknown command %q", msg.Cmd)
		}
	}
}

func request(conv controllable, r conversation.Request) ipc.Reply {
	if !conv.Request(r) {
		return ipc.Fail("request queue full")
	}
	return ipc.Ok("queued")
}

func describeTimers(hs []timer.Handle, now time.Time) string {
	if len(hs) == 0 {
		return "no timers"
	}
	lines := make([]string, 0, len(hs))
	for _, h := range hs {
		left := h.FireAt().Sub(now).Round(time.Second)
		if left < 0 {
			left = 0
		}
		lines = append(lines, fmt.Sprintf("#%d %s, %s left", h.ID, timer.Describe(h.Duration), left))
	}
	return strings.Join(lines, "\n")
}
