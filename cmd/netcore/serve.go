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
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashforge/netcore/address"
	"github.com/ashforge/netcore/block"
	"github.com/ashforge/netcore/config/store"
	"github.com/ashforge/netcore/duration"
	liberr "github.com/ashforge/netcore/errors"
	loglvl "github.com/ashforge/netcore/logger/level"
	"github.com/ashforge/netcore/network/protocol"
	"github.com/ashforge/netcore/registry"
	"github.com/ashforge/netcore/tcp"
	"github.com/ashforge/netcore/udp"
)

// udpEndpointSingleton adapts an already-constructed udp.Endpoint to
// registry.Singleton, so serve can order its shutdown alongside the
// TCP server's under one Registry.Stop call.
type udpEndpointSingleton struct {
	ep *udp.Endpoint
}

func (s *udpEndpointSingleton) Init() error {
	return s.ep.Start(context.Background())
}

func (s *udpEndpointSingleton) Deinit() error {
	return s.ep.Stop(context.Background())
}

func (s *udpEndpointSingleton) Dependencies() []string { return nil }

// tcpServerSingleton adapts a tcp.Server the same way, depending on
// the UDP endpoint so the replication object repository it seeds is
// live before TCP accepts.
type tcpServerSingleton struct {
	srv *tcp.Server
}

func (s *tcpServerSingleton) Init() error {
	return s.srv.Start(context.Background())
}

func (s *tcpServerSingleton) Deinit() error {
	return s.srv.Stop(context.Background())
}

func (s *tcpServerSingleton) Dependencies() []string { return []string{"udp"} }

// storeWatcherSingleton adapts a config/store.Watcher the same way,
// so a config store passed via -config gets its fsnotify-driven
// reload wired into the same ordered lifecycle as the transports.
type storeWatcherSingleton struct {
	w *store.Watcher
}

func (s *storeWatcherSingleton) Init() error {
	return s.w.Start(context.Background())
}

func (s *storeWatcherSingleton) Deinit() error {
	return s.w.Stop(context.Background())
}

func (s *storeWatcherSingleton) Dependencies() []string { return nil }

// engineHandler satisfies udp.Handler: every lifecycle event is
// logged, and every reassembled payload is logged at debug level and
// released.
type engineHandler struct{}

func (engineHandler) ConnectionRequest(id uint32, addr address.Address) {
	log.Entry(loglvl.InfoLevel, "udp connection requested").FieldAdd("id", id).FieldAdd("addr", addr.String()).Log()
}

func (engineHandler) ConnectionSucceeded(id uint32, addr address.Address) {
	log.Entry(loglvl.InfoLevel, "udp connection established").FieldAdd("id", id).FieldAdd("addr", addr.String()).Log()
}

func (engineHandler) ConnectionClosed(id uint32, addr address.Address) {
	log.Entry(loglvl.InfoLevel, "udp connection closed").FieldAdd("id", id).FieldAdd("addr", addr.String()).Log()
}

func (engineHandler) DataReceived(id uint32, blk *block.Block) {
	defer blk.Release()
	log.Entry(loglvl.DebugLevel, "udp payload received").FieldAdd("id", id).FieldAdd("bytes", blk.Size()).Log()
}

func (engineHandler) EndpointError(err liberr.Error) {
	log.Entry(loglvl.ErrorLevel, "udp endpoint error").FieldAdd("error", err.Error()).Log()
	captureError(err)
}

// tcpHandler satisfies tcp.ServerHandler the same way.
type tcpHandler struct{}

func (tcpHandler) ConnectionAccepted(c *tcp.Connection) {
	log.Entry(loglvl.InfoLevel, "tcp connection accepted").FieldAdd("id", c.ID()).FieldAdd("remote", c.RemoteAddress().String()).Log()
}

func (tcpHandler) ConnectionClosed(c *tcp.Connection) {
	log.Entry(loglvl.InfoLevel, "tcp connection closed").FieldAdd("id", c.ID()).Log()
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "bind the UDP endpoint and TCP server described by the config store and block until signaled",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	var st *store.Store
	if cfgPath != "" {
		s, err := store.Load(cfgPath)
		if err != nil {
			return err
		}
		st = s
	}

	ucfg := udpConfigFromStore(st)
	tcfg := tcpConfigFromStore(st)

	ep, err := udp.New(ucfg, engineHandler{}, log)
	if err != nil {
		return err
	}

	srv, err := tcp.NewServer(tcfg, tcpHandler{}, log)
	if err != nil {
		return err
	}

	reg := registry.New()
	if rerr := reg.Add("udp", &udpEndpointSingleton{ep: ep}); rerr != nil {
		return rerr
	}
	if rerr := reg.Add("tcp", &tcpServerSingleton{srv: srv}); rerr != nil {
		return rerr
	}
	if st != nil {
		w, werr := store.NewWatcher(st, log)
		if werr != nil {
			return werr
		}
		if rerr := reg.Add("config-watch", &storeWatcherSingleton{w: w}); rerr != nil {
			return rerr
		}
	}

	if serr := reg.Start(); serr != nil {
		return serr
	}

	log.Entry(loglvl.InfoLevel, "serving").
		FieldAdd("udp", ep.LocalAddress().String()).
		FieldAdd("tcp", srv.LocalAddress().String()).
		Log()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Entry(loglvl.InfoLevel, "shutting down").Log()
	if serr := reg.Stop(); serr != nil {
		captureError(serr)
		return serr
	}
	return nil
}

func udpConfigFromStore(st *store.Store) udp.Config {
	cfg := udp.DefaultConfig()
	if st == nil {
		return cfg
	}

	if v, ok := st.Get("udp", "listen_address"); ok {
		cfg.ListenAddress = v
	}
	if v, ok := st.Get("udp", "connection_timeout_ms"); ok {
		if d, derr := duration.Parse(v); derr == nil {
			cfg.ConnectionTimeout = d
		}
	}
	if v, ok := st.Get("udp", "ping_interval_ms"); ok {
		if d, derr := duration.Parse(v); derr == nil {
			cfg.PingInterval = d
		}
	}
	if v, ok := st.Get("udp", "send_timeout_ms"); ok {
		if d, derr := duration.Parse(v); derr == nil {
			cfg.SendTimeout = d
		}
	}
	if v, ok := st.Get("udp", "selector_timeout_ms"); ok {
		if d, derr := duration.Parse(v); derr == nil {
			cfg.SelectorTimeout = d
		}
	}
	if v, ok := st.Get("udp", "max_retransmissions"); ok {
		cfg.MaxRetransmissions = atoiOr(v, cfg.MaxRetransmissions)
	}
	if v, ok := st.Get("udp", "max_connection_retries"); ok {
		cfg.MaxConnectionRetries = atoiOr(v, cfg.MaxConnectionRetries)
	}
	if v, ok := st.Get("udp", "max_mtu"); ok {
		cfg.MaxMTU = atoiOr(v, cfg.MaxMTU)
	}
	if v, ok := st.Get("udp", "default_mtu"); ok {
		cfg.DefaultMTU = atoiOr(v, cfg.DefaultMTU)
	}
	return cfg
}

func tcpConfigFromStore(st *store.Store) tcp.Config {
	cfg := tcp.DefaultConfig()
	if st == nil {
		cfg.Address = ":0"
		return cfg
	}

	if v, ok := st.Get("tcp", "address"); ok {
		cfg.Address = v
	} else {
		cfg.Address = ":0"
	}
	if v, ok := st.Get("tcp", "network"); ok {
		switch v {
		case "tcp4":
			cfg.Network = protocol.NetworkTCP4
		case "tcp6":
			cfg.Network = protocol.NetworkTCP6
		default:
			cfg.Network = protocol.NetworkTCP
		}
	}
	if v, ok := st.Get("tcp", "initial_storage_size"); ok {
		cfg.Reassembler.InitialStorageSize = atoiOr(v, cfg.Reassembler.InitialStorageSize)
	}
	if v, ok := st.Get("tcp", "max_storage_size"); ok {
		cfg.Reassembler.MaxStorageSize = atoiOr(v, cfg.Reassembler.MaxStorageSize)
	}
	if v, ok := st.Get("tcp", "max_header_size"); ok {
		cfg.Reassembler.MaxHeaderSize = atoiOr(v, cfg.Reassembler.MaxHeaderSize)
	}
	return cfg
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
