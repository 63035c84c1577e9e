// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/logger"
	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/version"
)

const (
	defaultConfigFilename = "quasard.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "quasard.log"
	defaultErrLogFilename = "quasard_err.log"

	defaultRPCListenAddress = "localhost:28180"
	simnetRPCListenAddress  = "localhost:28380"

	defaultMaxTxSize     = 1 << 17 // 128 KiB
	defaultMinRelayTxFee = 1000    // base units per kilobyte
)

var (
	// DefaultAppDir is the default home directory for quasard.
	DefaultAppDir = util.AppDataDir("quasard", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

var activeConfig *Config

// Flags defines the configuration options for quasard.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string   `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir        string   `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir        string   `long:"logdir" description:"Directory to log output"`
	DebugLevel    string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	RPCListeners  []string `long:"rpclisten" description:"Add an interface/port to listen for RPC connections (default port: 28180, simnet: 28380)"`
	DisableRPC    bool     `long:"norpc" description:"Disable built-in RPC server"`
	MiningAddr    string   `long:"miningaddr" description:"Address to credit with rewards of blocks built by get_block_template"`
	MaxTxSize     uint64   `long:"maxtxsize" description:"Maximum serialized size of a transaction the mempool will accept"`
	MinRelayTxFee uint64   `long:"minrelaytxfee" description:"Minimum fee, in base units per kilobyte, for a transaction to be accepted into the mempool"`
	NetworkFlags
}

// Config defines the configuration options for quasard.
type Config struct {
	*Flags
}

// ActiveConfig returns the currently active configuration struct
func ActiveConfig() *Config {
	return activeConfig
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:    defaultConfigFile,
		AppDir:        defaultDataDir,
		LogDir:        defaultLogDir,
		DebugLevel:    defaultLogLevel,
		MaxTxSize:     defaultMaxTxSize,
		MinRelayTxFee: defaultMinRelayTxFee,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// The above results in quasard functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take precedence.
func loadConfig() (*Config, []string, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfgFlags
	preParser := flags.NewParser(preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(cfgFlags, flags.Default)
	cfg := &Config{Flags: cfgFlags}
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		// A missing config file at the default location is fine. A
		// missing file the user asked for explicitly is not.
		if preCfg.ConfigFile != defaultConfigFile {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, nil, err
	}

	// The app directory is network-specific so that multiple networks can
	// coexist on the same machine.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.AppDir = filepath.Join(cfg.AppDir, cfg.NetParams().Name)

	logDir := cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(logDir, cfg.NetParams().Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After the log rotation has been initialized,
	// the logger variables may be used.
	err = logger.InitLogRotators(filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrLogFilename))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing log rotation: %s\n", err)
		return nil, nil, err
	}

	// Parse, validate, and set debug log level(s).
	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		err = errors.Errorf("%s: %s", err, usageMessage)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	if cfg.MiningAddr != "" {
		addr, err := util.DecodeAddress(cfg.MiningAddr)
		if err != nil {
			err = errors.Errorf("--miningaddr: invalid address %q: %s",
				cfg.MiningAddr, err)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		if !addr.IsNormal() {
			err = errors.Errorf("--miningaddr: address %q is not a "+
				"normal address", cfg.MiningAddr)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Default RPC listener on localhost only.
	if len(cfg.RPCListeners) == 0 {
		listenAddress := defaultRPCListenAddress
		if cfg.Simnet {
			listenAddress = simnetRPCListenAddress
		}
		cfg.RPCListeners = []string{listenAddress}
	}
	for _, listener := range cfg.RPCListeners {
		if _, _, err := net.SplitHostPort(listener); err != nil {
			err = errors.Errorf("--rpclisten: invalid listen "+
				"address %q: %s", listener, err)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	if cfg.MaxTxSize == 0 {
		err = errors.Errorf("--maxtxsize must be greater than zero")
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	return cfg, remainingArgs, nil
}

// LoadAndSetActiveConfig loads the config that can be afterward be accesible
// through ActiveConfig()
func LoadAndSetActiveConfig() error {
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	activeConfig = tcfg
	return nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
