package main

import (
	"fmt"
	"os"

	cli "github.com/spf13/pflag"

	"navi/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket of the running assistant")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: navi-ctl [--socket path] status|stop\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	cmd := "status"
	if cli.NArg() > 0 {
		cmd = cli.Arg(0)
	}

	r, err := ipc.SendCommand(*socket, cmd)
	if err != nil {
		fmt.Println("navi not reachable:", err)
		os.Exit(1)
	}

	fmt.Printf("state: %s\nturns: %d\n", r.State, r.Turns)
}
