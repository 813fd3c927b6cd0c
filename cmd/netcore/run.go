/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashforge/netcore/command"
	loglvl "github.com/ashforge/netcore/logger/level"
	"github.com/ashforge/netcore/network/protocol"
	"github.com/ashforge/netcore/replication"
	shcmd "github.com/ashforge/netcore/shell/command"
	"github.com/ashforge/netcore/tcp"
)

var commands = command.NewRegistry()

var (
	messageServer           string
	messageConnectionKey    string
	messageStartupTimestamp int64
)

func init() {
	commands.Register(shcmd.New("hello", "dial -messageServer and send a hello message, printing the reply", helloCommandFunc))
}

// helloCommandFunc is the one built-in command run can host: it is the
// §6 handshake smoke test, kept simple enough to run without a
// serve instance already up.
func helloCommandFunc(out, errw io.Writer, args []string) {
	if messageServer == "" {
		fmt.Fprintln(errw, "hello: -messageServer is required")
		return
	}

	cfg := tcp.DefaultConfig()
	cfg.Network = protocol.NetworkTCP
	cfg.Address = messageServer

	cl, err := tcp.NewClient(cfg, log)
	if err != nil {
		fmt.Fprintln(errw, "hello: dial failed:", err)
		return
	}
	defer func() { _ = cl.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := cl.Start(ctx); serr != nil {
		fmt.Fprintln(errw, "hello: start failed:", serr)
		return
	}
	defer func() { _ = cl.Stop(context.Background()) }()

	ts := messageStartupTimestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}

	msg := replication.Message{
		Type: 1,
		Fields: []replication.Field{
			{Name: "connectionKey", Kind: replication.FieldString, Str: messageConnectionKey},
			{Name: "startupTimestamp", Kind: replication.FieldPlain, Plain: ts},
		},
	}

	if serr := cl.Send(msg); serr != nil {
		fmt.Fprintln(errw, "hello: send failed:", serr)
		return
	}

	fmt.Fprintln(out, "hello: sent")
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [name]",
		Short: "host one registered command to completion, optionally dialing a message server first",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunCommand,
	}

	flags := cmd.Flags()
	flags.StringVar(&messageServer, "messageServer", "", "host:port of a TCP server to dial before running the command")
	flags.StringVar(&messageConnectionKey, "messageConnectionKey", "", "connection key sent in the hello message")
	flags.Int64Var(&messageStartupTimestamp, "messageStartupTimestamp", 0, "unix timestamp sent in the hello message, defaults to now")

	return cmd
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	name := args[0]

	c, err := commands.Lookup(name)
	if err != nil {
		return err
	}

	h := command.NewHost(c, args[1:], nil, log)
	if rerr := h.Run(); rerr != nil {
		return rerr
	}
	if werr := h.Wait(); werr != nil {
		return werr
	}

	_, _ = os.Stdout.Write(h.Output())

	if cerr := h.CapturedError(); cerr != nil {
		captureError(cerr)
		return cerr
	}

	log.Entry(loglvl.InfoLevel, "command run finished").FieldAdd("name", name).FieldAdd("run_id", h.RunID()).Log()
	return nil
}
