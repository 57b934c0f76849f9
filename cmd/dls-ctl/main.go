// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dls-ctl supervises simulation runs: it launches dls-run on
// request, follows the simulated-time progress of the run's VCD
// output and sends a mail alert when a run stops making progress
// before reaching quiescence.
package main // import "github.com/go-dls/dls/cmd/dls-ctl"

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	mail "gopkg.in/gomail.v2"
)

func main() {
	var (
		bin  = flag.String("cmd", "dls-run", "simulation runner to launch")
		addr = flag.String("addr", ":8866", "[ip]:port to listen on")
		dir  = flag.String("dir", ".", "directory holding the VCD outputs")
		freq = flag.Duration("freq", 30*time.Second, "progress probing interval")
	)

	flag.Parse()

	log.SetPrefix("dls-ctl: ")
	log.SetFlags(0)

	srv, err := newServer(*addr, *dir, *freq)
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}
	log.Printf("serving run control on %q...", *addr)
	srv.serve(*bin)
}

// Request is one command sent to the control socket.
type Request struct {
	Cmd     string `json:"cmd"`               // "start", "stop" or "status"
	Design  string `json:"design,omitempty"`  // netlist file for "start"
	Run     string `json:"run,omitempty"`     // run name; defaults to the design base name
	Horizon uint64 `json:"horizon,omitempty"` // optional time horizon for dls-run -t
}

// Reply is the answer to a Request.
type Reply struct {
	Msg string `json:"msg,omitempty"`
	Err string `json:"err,omitempty"`
}

// runProc is one launched simulation run. done is closed once the
// process has been reaped, with err carrying its exit status; both
// the stop path and the watcher wait on it.
type runProc struct {
	name string
	vcd  string
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

type server struct {
	conn net.Listener
	dir  string
	freq time.Duration
	post mailer

	mu  sync.Mutex
	cur *runProc // active run, nil when idle
}

func newServer(addr, dir string, freq time.Duration) (*server, error) {
	conn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %q: %w", addr, err)
	}
	return &server{
		conn: conn,
		dir:  dir,
		freq: freq,
		post: mailerFromEnv(),
	}, nil
}

func (srv *server) serve(bin string) {
	for {
		conn, err := srv.conn.Accept()
		if err != nil {
			log.Printf("could not accept connection: %+v", err)
			continue
		}
		go srv.handle(bin, conn)
	}
}

func (srv *server) handle(bin string, conn net.Conn) {
	defer conn.Close()

	for {
		var req Request
		err := json.NewDecoder(conn).Decode(&req)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("could not decode request: %+v", err)
			}
			return
		}

		var reply Reply
		switch req.Cmd {
		case "start":
			reply = srv.start(bin, req)
		case "stop":
			reply = srv.stop()
		case "status":
			reply = srv.status()
		default:
			log.Printf("unknown request %q", req.Cmd)
			reply = Reply{Err: fmt.Sprintf("unknown request %q", req.Cmd)}
		}
		_ = json.NewEncoder(conn).Encode(reply)
	}
}

// buildArgs validates a start request against the dls-run contract
// and returns the argument list and VCD output path for it.
func buildArgs(dir string, req Request) (args []string, vcd string, err error) {
	if req.Design == "" {
		return nil, "", fmt.Errorf("start request without a design")
	}
	if _, err := os.Stat(req.Design); err != nil {
		return nil, "", fmt.Errorf("could not stat design %q: %w", req.Design, err)
	}

	run := req.Run
	if run == "" {
		run = strings.TrimSuffix(filepath.Base(req.Design), filepath.Ext(req.Design))
	}
	if strings.ContainsAny(run, "/ ") {
		return nil, "", fmt.Errorf("invalid run name %q", run)
	}

	vcd = filepath.Join(dir, run+".vcd")
	args = []string{"-vcd", vcd}
	if req.Horizon > 0 {
		args = append(args, "-t", strconv.FormatUint(req.Horizon, 10))
	}
	args = append(args, req.Design)
	return args, vcd, nil
}

func (srv *server) start(bin string, req Request) Reply {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.cur != nil {
		return Reply{Err: fmt.Sprintf("run %q still active; stop it first", srv.cur.name)}
	}

	args, vcd, err := buildArgs(srv.dir, req)
	if err != nil {
		return Reply{Err: err.Error()}
	}

	rp := &runProc{
		name: strings.TrimSuffix(filepath.Base(vcd), ".vcd"),
		vcd:  vcd,
		cmd:  exec.Command(bin, args...),
		done: make(chan struct{}),
	}
	rp.cmd.Stdout = os.Stdout
	rp.cmd.Stderr = os.Stderr

	log.Printf("launching run %q: %s %s", rp.name, bin, strings.Join(args, " "))
	err = rp.cmd.Start()
	if err != nil {
		return Reply{Err: fmt.Sprintf("could not launch %q: %+v", bin, err)}
	}

	go func() {
		rp.err = rp.cmd.Wait()
		close(rp.done)
	}()
	go srv.watch(rp)

	srv.cur = rp
	return Reply{Msg: fmt.Sprintf("run %q started", rp.name)}
}

func (srv *server) stop() Reply {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	rp := srv.cur
	if rp == nil {
		return Reply{Msg: "idle"}
	}
	srv.cur = nil

	log.Printf("terminating run %q (pid=%d)...", rp.name, rp.cmd.Process.Pid)
	err := rp.cmd.Process.Kill()
	if err != nil {
		return Reply{Err: fmt.Sprintf("could not terminate run %q: %+v", rp.name, err)}
	}
	<-rp.done
	return Reply{Msg: fmt.Sprintf("run %q stopped", rp.name)}
}

func (srv *server) status() Reply {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.cur == nil {
		return Reply{Msg: "idle"}
	}
	stamp, err := lastStamp(srv.cur.vcd)
	if err != nil {
		return Reply{Msg: fmt.Sprintf("run %q active, no waveform yet", srv.cur.name)}
	}
	return Reply{Msg: fmt.Sprintf("run %q active, t=%d", srv.cur.name, stamp)}
}

// stallTicks is the number of consecutive probes without simulated-
// time progress after which a run counts as stalled.
const stallTicks = 3

// tracker follows the simulated-time progress of one run.
type tracker struct {
	stamp uint64
	idle  int
}

// observe feeds the latest VCD timestamp to the tracker and reports
// whether the run just crossed the stall threshold. Progress resets
// the stall state, so a run alerts at most once per stall episode.
func (trk *tracker) observe(stamp uint64) bool {
	if stamp > trk.stamp {
		trk.stamp = stamp
		trk.idle = 0
		return false
	}
	trk.idle++
	return trk.idle == stallTicks
}

// watch probes the run's VCD output until the process exits. A run
// that keeps its simulated clock frozen across several probes while
// the process is still alive is reported as stalled.
func (srv *server) watch(rp *runProc) {
	log.Printf("watching run %q via %q...", rp.name, rp.vcd)

	var (
		tick = time.NewTicker(srv.freq)
		trk  tracker
	)
	defer tick.Stop()

	for {
		select {
		case <-rp.done:
			if rp.err != nil {
				log.Printf("run %q exited with error: %+v", rp.name, rp.err)
			} else {
				log.Printf("run %q completed", rp.name)
			}
			srv.mu.Lock()
			if srv.cur == rp {
				srv.cur = nil
			}
			srv.mu.Unlock()
			return

		case <-tick.C:
			stamp, err := lastStamp(rp.vcd)
			if err != nil {
				log.Printf("could not probe run %q: %+v", rp.name, err)
				continue
			}
			log.Printf("run %q at t=%d", rp.name, stamp)
			if trk.observe(stamp) {
				srv.stalled(rp, stamp)
			}
		}
	}
}

func (srv *server) stalled(rp *runProc, stamp uint64) {
	idle := time.Duration(stallTicks) * srv.freq
	log.Printf("run %q stalled at t=%d for %v", rp.name, stamp, idle)
	srv.post.stalled(rp.name, rp.vcd, stamp, idle)
}

// lastStamp returns the most recent simulated timestamp recorded in
// the VCD file, scanning for the trailing #<time> marker.
func lastStamp(fname string) (uint64, error) {
	f, err := os.Open(fname)
	if err != nil {
		return 0, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	var (
		stamp uint64
		found bool
		sc    = bufio.NewScanner(f)
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseUint(line[1:], 10, 64)
		if err != nil {
			continue
		}
		stamp = v
		found = true
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("could not scan %q: %w", fname, err)
	}
	if !found {
		return 0, fmt.Errorf("no timestamp in %q", fname)
	}
	return stamp, nil
}

// mailer holds the SMTP alert configuration, taken from the MAIL_*
// environment.
type mailer struct {
	user string
	pass string
	host string
	port int
	rcpt []string
}

func mailerFromEnv() mailer {
	m := mailer{
		user: os.Getenv("MAIL_USERNAME"),
		pass: os.Getenv("MAIL_PASSWORD"),
		host: os.Getenv("MAIL_SERVER"),
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("could not parse MAIL_PORT=%q: %+v", v, err)
		}
		m.port = port
	}
	if v := os.Getenv("MAIL_TGTS"); v != "" {
		m.rcpt = strings.Split(v, ",")
	}
	return m
}

func (m mailer) enabled() bool {
	return m.user != "" && m.pass != "" && m.host != "" && m.port != 0 && len(m.rcpt) > 0
}

func (m mailer) stalled(run, fname string, stamp uint64, idle time.Duration) {
	if !m.enabled() {
		log.Printf("mail alerts disabled (set the MAIL_* environment to enable)")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.user)
	msg.SetHeader("To", m.rcpt...)
	msg.SetHeader("Subject", fmt.Sprintf("simulation run %q stalled", run))
	msg.SetBody("text/plain", fmt.Sprintf(
		"run:      %s\nwaveform: %s\nsim time: %d\nfrozen:   %v\n",
		run, fname, stamp, idle,
	))

	err := mail.NewDialer(m.host, m.port, m.user, m.pass).DialAndSend(msg)
	if err != nil {
		log.Printf("could not send stall alert for run %q: %+v", run, err)
	}
}
