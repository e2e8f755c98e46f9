package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	cli "github.com/spf13/pflag"

	"voxd/internal/ipc"
)

func main() {
	socket := cli.String("socket", ipc.DefaultSocketPath, "Daemon control socket")
	timeout := cli.Duration("timeout", 3*time.Second, "How long to wait for the daemon")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: voxd-ctl [flags] wake|sleep|status|timers|cancel <id>\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	if cli.NArg() == 0 {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: cli.Arg(0)}
	if msg.Cmd == ipc.CmdCancel {
		id, err := strconv.Atoi(cli.Arg(1))
		if err != nil {
			fmt.Fprintln(os.Stderr, "cancel needs a timer id")
			os.Exit(2)
		}
		msg.ID = id
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, *socket, msg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "voxd not running:", err)
		os.Exit(1)
	}

	fmt.Println(reply.Message)
	if !reply.OK {
		os.Exit(1)
	}
}
