// go-busbridge
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-busbridge.
//
// go-busbridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-busbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-busbridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command busbridge serves the SPI/I2C command bridge on a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	busbridge "github.com/ZaparooProject/go-busbridge"
	"github.com/ZaparooProject/go-busbridge/internal/syncutil"
	"github.com/ZaparooProject/go-busbridge/transport/i2c"
	"github.com/ZaparooProject/go-busbridge/transport/spi"
	"github.com/ZaparooProject/go-busbridge/transport/uart"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const lockTimeout = 30 * time.Second

type config struct {
	chipSelects map[busbridge.ChipSelect]string
	port        string
	spiPort     string
	i2cBus      string
	exec        string
	baud        int
	poll        time.Duration
	debug       bool
	sessionLog  bool
	list        bool
}

func parseConfig(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("busbridge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := &config{}
	var csEEPROM, csDAC, csUSD string
	fs.StringVar(&cfg.port, "port", "", "Serial port path (auto-detect if empty)")
	fs.IntVar(&cfg.baud, "baud", busbridge.DefaultBaudRate, "Serial baud rate")
	fs.StringVar(&cfg.spiPort, "spi", "", "SPI port, e.g. /dev/spidev0.0 (disabled if empty)")
	fs.StringVar(&csEEPROM, "cs-eeprom", "GPIO8", "GPIO for the EEPROM chip select")
	fs.StringVar(&csDAC, "cs-dac", "GPIO7", "GPIO for the DAC chip select")
	fs.StringVar(&csUSD, "cs-usd", "GPIO25", "GPIO for the micro SD chip select")
	fs.StringVar(&cfg.i2cBus, "i2c", "", "I2C bus, e.g. 1 (disabled if empty)")
	fs.DurationVar(&cfg.poll, "poll", busbridge.DefaultPollInterval, "Bridge poll interval")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug output")
	fs.BoolVar(&cfg.sessionLog, "log", false, "Write a session log file")
	fs.BoolVar(&cfg.list, "list", false, "List serial ports and exit")
	fs.StringVar(&cfg.exec, "exec", "", "Run one command line against the buses and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if cfg.baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", cfg.baud)
	}
	if cfg.poll <= 0 {
		return nil, fmt.Errorf("invalid poll interval %s", cfg.poll)
	}

	cfg.chipSelects = make(map[busbridge.ChipSelect]string, 3)
	for cs, name := range map[busbridge.ChipSelect]string{
		busbridge.ChipSelectEEPROM: csEEPROM,
		busbridge.ChipSelectDAC:    csDAC,
		busbridge.ChipSelectUSD:    csUSD,
	} {
		if name != "" {
			cfg.chipSelects[cs] = name
		}
	}
	return cfg, nil
}

// setupLogging routes daemon log lines to w. The level is set on the logger,
// not globally, so the session log still sees debug events.
func setupLogging(w io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		busbridge.SetDebugEnabled(true)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func listPorts(w io.Writer, detect func() ([]uart.PortInfo, error)) error {
	ports, err := detect()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(w, "No serial ports found")
		return nil
	}
	for _, p := range ports {
		_, _ = fmt.Fprintln(w, p)
	}
	return nil
}

// buses holds the opened hardware and the parser options that reach it.
type buses struct {
	closers []io.Closer
	opts    []busbridge.ParserOption
}

func (b *buses) Close() {
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close bus")
		}
	}
}

func openBuses(cfg *config) (*buses, error) {
	b := &buses{}
	if cfg.spiPort != "" {
		s, err := spi.New(cfg.spiPort, cfg.chipSelects)
		if err != nil {
			return nil, fmt.Errorf("failed to open SPI: %w", err)
		}
		b.closers = append(b.closers, s)
		b.opts = append(b.opts, busbridge.WithSPIBus(s))
		log.Info().Str("port", cfg.spiPort).Int("chip_selects", len(cfg.chipSelects)).Msg("SPI ready")
	}
	if cfg.i2cBus != "" {
		bus, err := i2c.New(cfg.i2cBus)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open I2C: %w", err)
		}
		b.closers = append(b.closers, bus)
		b.opts = append(b.opts, busbridge.WithI2CBus(bus))
		log.Info().Str("bus", cfg.i2cBus).Msg("I2C ready")
	}
	if len(b.opts) == 0 {
		log.Warn().Msg("no SPI or I2C bus configured; every command will report an error")
	}
	return b, nil
}

// runExec runs a single line and prints the response exactly as the host
// would receive it.
func runExec(w io.Writer, line string, opts ...busbridge.ParserOption) error {
	res := busbridge.NewParser(nil, opts...).Execute(line)
	_, _ = io.WriteString(w, res.Response())
	if res.Outcome != busbridge.OutcomeOK {
		return fmt.Errorf("command %q: %s: %w", line, res.Outcome, res.Err)
	}
	return nil
}

func logResult(res busbridge.Result) {
	ev := log.Debug()
	if res.Outcome != busbridge.OutcomeOK {
		ev = log.Warn().Err(res.Err)
	}
	ev.Str("kind", res.Kind.String()).
		Str("outcome", res.Outcome.String()).
		Int("bytes", len(res.Data)).
		Msg("command")
}

func logStateChange(from, to busbridge.LinkState) {
	ev := log.Info()
	if to == busbridge.LinkError {
		ev = log.Error()
	}
	ev.Str("from", from.String()).Str("to", to.String()).Msg("link state changed")
}

func serve(ctx context.Context, cfg *config, opts []busbridge.ParserOption) error {
	port := cfg.port
	if port == "" {
		info, err := uart.SelectPort()
		if err != nil {
			return fmt.Errorf("failed to auto-detect serial port: %w", err)
		}
		log.Info().Str("port", info.String()).Msg("auto-detected serial port")
		port = info.Path
	}

	link := uart.New(port, uart.WithBaudRate(cfg.baud))
	bridge := busbridge.NewBridge(link,
		busbridge.WithParserOptions(append(opts, busbridge.WithResultHook(logResult))...),
		busbridge.WithPollInterval(cfg.poll),
		busbridge.WithOnStateChange(logStateChange),
	)

	log.Info().Str("port", port).Int("baud", cfg.baud).Msg("bridge running")
	err := bridge.Run(ctx)

	rxFull, ioErrors := link.Stats()
	log.Info().
		Int("rx_full", rxFull).
		Int("io_errors", ioErrors).
		Int("dropped", bridge.Queue().Dropped()).
		Msg("bridge stopped")
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	return nil
}

func run(ctx context.Context, cfg *config, stdout io.Writer) error {
	if cfg.list {
		return listPorts(stdout, uart.Detect)
	}

	b, err := openBuses(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.exec != "" {
		return runExec(stdout, cfg.exec, b.opts...)
	}
	return serve(ctx, cfg, b.opts)
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	cfg, err := parseConfig(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	setupLogging(os.Stderr, cfg.debug)
	syncutil.SetTimeout(lockTimeout)
	if syncutil.Enabled {
		log.Debug().Dur("timeout", lockTimeout).Msg("deadlock detection enabled")
	}

	if cfg.sessionLog {
		path, logErr := busbridge.InitSessionLog()
		if logErr != nil {
			log.Warn().Err(logErr).Msg("failed to create session log")
		} else {
			log.Info().Str("path", path).Msg("session log")
			defer func() {
				if err := busbridge.CloseSessionLog(); err != nil {
					log.Warn().Err(err).Msg("failed to close session log")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		log.Error().Err(err).Msg("busbridge failed")
		return 1
	}
	return 0
}
