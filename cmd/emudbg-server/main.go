package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ngdevkit/emudbg/internal/cli"
	"github.com/ngdevkit/emudbg/internal/debug/emulator"
	"github.com/ngdevkit/emudbg/internal/debug/gdbserver"
	"github.com/ngdevkit/emudbg/internal/debug/host"
	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

const toolName = "emudbg-server"

func main() {
	var (
		configPath  string
		addr        string
		rom         string
		loadAddr    string
		validate    bool
		maxMemRead  int
		verbose     bool
		debug       bool
		showVersion bool
		jsonOutput  bool
	)
	flag.StringVar(&configPath, "config", "", "path to JSON configuration file")
	flag.StringVar(&addr, "addr", gdbserver.DefaultAddr, "listen address for RSP (tcp)")
	flag.StringVar(&rom, "rom", "", "image loaded into the emulated machine")
	flag.StringVar(&loadAddr, "load-addr", "0", "hex address the image is loaded at, also the initial pc")
	flag.BoolVar(&validate, "validate-checksum", false, "reject packets whose checksum does not match")
	flag.IntVar(&maxMemRead, "max-mem-read", gdbserver.DefaultMaxMemoryRead, "largest memory read served by one packet")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.BoolVar(&debug, "debug", false, "log every packet")
	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&jsonOutput, "json", false, "output version information in JSON format")
	flag.Parse()

	if showVersion {
		cli.PrintVersion(os.Stdout, toolName, jsonOutput)
		return
	}

	// explicitly set flags win over the environment, which wins over the file
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overrideFlags := func(cfg *cli.Config) error {
		if set["addr"] {
			cfg.Addr = addr
		}
		if set["rom"] {
			cfg.ROM = rom
		}
		if set["load-addr"] {
			v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(loadAddr), "0x"), 16, 32)
			if err != nil {
				return emuerrors.InvalidConfig("load-addr", loadAddr, err.Error())
			}
			cfg.LoadAddr = uint32(v)
		}
		if set["validate-checksum"] {
			cfg.ValidateChecksum = validate
		}
		if set["max-mem-read"] {
			cfg.MaxMemoryRead = maxMemRead
		}
		if set["v"] {
			cfg.Verbose = verbose
		}
		if set["debug"] {
			cfg.Debug = debug
		}
		return nil
	}
	load := func(path string) (*cli.Config, error) {
		cfg, err := cli.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
		if err := overrideFlags(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := load(configPath)
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		cli.ExitWithError("%v", err)
	}
	logger := cli.NewLogger(cfg.Verbose, cfg.Debug)

	machine, err := emulator.NewFlat(emulator.DefaultFlatConfig)
	cli.HandleError(err, logger)
	if cfg.ROM != "" {
		image, err := os.ReadFile(cfg.ROM)
		if err != nil {
			cli.HandleError(emuerrors.ConfigFile(cfg.ROM, "read rom", err), logger)
		}
		cli.HandleError(machine.Load(cfg.LoadAddr, image), logger)
		logger.Info("loaded %d bytes from %s at %#x", len(image), cfg.ROM, cfg.LoadAddr)
	}
	machine.SetPC(cfg.LoadAddr)

	session, err := gdbserver.NewSession(machine, cfg.SessionOptions(logger))
	cli.HandleError(err, logger)
	runner := host.NewRunner(machine, session, cfg.SliceBudget)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configPath != "" {
		watcher, err := cli.WatchConfig(configPath, load)
		if err != nil {
			logger.Warn("config reload disabled: %v", err)
		} else {
			defer watcher.Close()
			reloads := make(chan host.Settings, 1)
			runner.SetReloads(reloads)
			go forwardReloads(ctx, watcher, reloads, logger)
		}
	}

	fmt.Printf("%s listening on %s\n", toolName, cfg.Addr)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cli.HandleError(err, logger)
	}
	fmt.Printf("%s stopped\n", toolName)
}

// forwardReloads hands watcher revisions to the runner, dropping revisions
// the runner has not picked up yet.
func forwardReloads(ctx context.Context, w *cli.ConfigWatcher, out chan host.Settings, logger *cli.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.Errors():
			logger.Warn("config reload failed: %v", err)
		case cfg := <-w.Updates():
			st := host.Settings{
				Options:     cfg.SessionOptions(cli.NewLogger(cfg.Verbose, cfg.Debug)),
				SliceBudget: cfg.SliceBudget,
			}
			select {
			case <-out:
			default:
			}
			out <- st
		}
	}
}
