/*
DESCRIPTION
  tsfeed is a test harness that demuxes one elementary stream out of an
  MPEG-TS file (or a directory of them, in -watch mode) and feeds its
  coded pictures to the rocDecode-sub000 parser one access unit at a
  time, logging every Sequence/Decode/Display callback it receives.

  tsfeed does not implement PAT/PMT program selection: the PID to
  demux is given explicitly with -pid, matching the "convenience caller
  of the in-scope host API, not a reimplementation of the out-of-scope
  demuxer contract" scoping decision this tool is grounded on.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package tsfeed is a CLI test harness for the rocDecode-sub000 parser.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Comcast/gots/packet"
	"github.com/Comcast/gots/pes"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"

	"github.com/ROCm/rocDecode-sub000/rocparser"
	"github.com/ROCm/rocDecode-sub000/session"
)

const pkg = "tsfeed: "

// watchExts are the elementary/container extensions -watch mode picks up.
var watchExts = map[string]bool{".ts": true}

func main() {
	in := flag.String("in", "", "MPEG-TS file to demux and parse")
	watch := flag.String("watch", "", "directory to watch for dropped .ts files, instead of a single -in file")
	pid := flag.Int("pid", 0x100, "PID of the video elementary stream to demux")
	codecName := flag.String("codec", "avc", "codec of the elementary stream: avc, hevc, or av1")
	displayDelay := flag.Int("display-delay", 0, "max_display_delay passed to rocparser.Create")
	verbose := flag.Bool("v", false, "log at Debug level instead of Info")
	flag.Parse()

	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level, os.Stderr, true)

	codec, err := parseCodec(*codecName)
	if err != nil {
		log.Fatal(pkg+"bad -codec", "error", err.Error())
	}

	switch {
	case *watch != "":
		if err := watchDir(*watch, *pid, codec, *displayDelay, log); err != nil {
			log.Fatal(pkg+"watch failed", "error", err.Error())
		}
	case *in != "":
		if err := feedFile(*in, *pid, codec, *displayDelay, log); err != nil {
			log.Fatal(pkg+"feed failed", "error", err.Error())
		}
	default:
		fmt.Fprintln(os.Stderr, "tsfeed: one of -in or -watch is required")
		os.Exit(2)
	}
}

func parseCodec(name string) (session.Codec, error) {
	switch strings.ToLower(name) {
	case "avc", "h264", "h.264":
		return session.AVC, nil
	case "hevc", "h265", "h.265":
		return session.HEVC, nil
	case "av1":
		return session.AV1, nil
	default:
		return 0, errors.Errorf("unknown codec %q", name)
	}
}

// watchDir feeds every already-present .ts file in dir through feedFile,
// then blocks watching for new ones, the same role fsnotify plays for
// device hot-plug in the teacher's revid.
func watchDir(dir string, pid int, codec session.Codec, displayDelay int, log logging.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "could not read watch directory")
	}
	for _, e := range entries {
		if !e.IsDir() && watchExts[strings.ToLower(filepath.Ext(e.Name()))] {
			path := filepath.Join(dir, e.Name())
			if err := feedFile(path, pid, codec, displayDelay, log); err != nil {
				log.Error(pkg+"could not feed file", "path", path, "error", err.Error())
			}
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not create watcher")
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return errors.Wrap(err, "could not watch directory")
	}

	log.Info("watching for dropped files", "dir", dir)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !watchExts[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			log.Debug("new file detected", "path", ev.Name)
			if err := feedFile(ev.Name, pid, codec, displayDelay, log); err != nil {
				log.Error(pkg+"could not feed file", "path", ev.Name, "error", err.Error())
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error(pkg+"watcher error", "error", err.Error())
		}
	}
}

// feedFile demuxes one PID's PES stream out of path and feeds each
// extracted access unit to a freshly created parser session, logging
// every callback it receives.
func feedFile(path string, pid int, codec session.Codec, displayDelay int, log logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open input file")
	}
	defer f.Close()

	h, status := rocparser.Create(rocparser.Params{
		Codec:           codec,
		MaxDisplayDelay: displayDelay,
		Logger:          log,
		Callbacks: rocparser.Callbacks{
			Sequence: func(f *rocparser.VideoFormat) int {
				log.Info("sequence", "width", f.CodedWidth, "height", f.CodedHeight)
				return 1
			},
			Decode: func(p *rocparser.PicParams) int {
				log.Debug("decode", "picIdx", p.CurrPicIdx, "width", p.Width, "height", p.Height)
				return 1
			},
			Display: func(d *rocparser.DispInfo) int {
				log.Debug("display", "picIdx", d.PicIdx, "pts", d.PTS)
				return 1
			},
		},
	})
	if status != rocparser.Success {
		return errors.Errorf("rocparser.Create: %v", status)
	}

	au := auAssembler{pid: pid}
	var buf [packet.PacketSize]byte
	for {
		_, err := io.ReadFull(f, buf[:])
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return errors.Wrap(err, "could not read TS packet")
		}
		tsPkt := packet.Packet(buf)
		if payload := au.feed(&tsPkt); payload != nil {
			if err := dispatch(h, payload, log); err != nil {
				return err
			}
		}
	}
	if payload := au.flush(); payload != nil {
		if err := dispatch(h, payload, log); err != nil {
			return err
		}
	}

	if status := h.ParseVideoData(&rocparser.Packet{Flags: rocparser.FlagEndOfStream}); status != rocparser.Success {
		return errors.Errorf("final flush: %v", status)
	}
	return nil
}

func dispatch(h *rocparser.Handle, payload []byte, log logging.Logger) error {
	if len(payload) == 0 {
		return nil
	}
	status := h.ParseVideoData(&rocparser.Packet{Payload: payload})
	if status != rocparser.Success {
		return errors.Errorf("ParseVideoData: %v (last error: %v)", status, rocparser.LastError(h))
	}
	return nil
}

// auAssembler reassembles one PID's PES packets into access-unit payloads
// by buffering TS payload bytes between payload-unit-start boundaries —
// gots' packet/pes packages parse the TS and PES framing; this type only
// tracks the PID filter and the PES-boundary buffering tsfeed itself
// needs.
type auAssembler struct {
	pid int
	buf []byte
}

// feed appends p's payload to the buffer if it belongs to the tracked PID.
// If p starts a new PES unit and a previous one was buffered, that
// previous unit's elementary-stream payload (PES header stripped) is
// returned; otherwise feed returns nil.
func (a *auAssembler) feed(p *packet.Packet) []byte {
	gotPid, err := packet.Pid(p)
	if err != nil || gotPid != a.pid {
		return nil
	}
	if !packet.ContainsPayload(p) {
		return nil
	}
	payload, err := packet.Payload(p)
	if err != nil {
		return nil
	}

	var completed []byte
	if packet.PayloadUnitStartIndicator(p) && len(a.buf) > 0 {
		completed = extractPES(a.buf)
		a.buf = nil
	}
	a.buf = append(a.buf, payload...)
	return completed
}

// flush extracts whatever PES unit is still buffered at end of stream.
func (a *auAssembler) flush() []byte {
	if len(a.buf) == 0 {
		return nil
	}
	raw := a.buf
	a.buf = nil
	return extractPES(raw)
}

func extractPES(raw []byte) []byte {
	h, err := pes.NewPESHeader(raw)
	if err != nil {
		return nil
	}
	return h.Data()
}
