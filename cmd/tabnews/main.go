package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-tabnews/internal/config"
	"github.com/jrsteele09/go-tabnews/internal/logging"
	"github.com/jrsteele09/go-tabnews/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const configPathVar = "TABNEWS_CONFIG"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	command         string
	configPath      string
	logLevel        string
	launcher        string
	tabsFile        string
	scope           string
	discovery       *bool
	verifySignature *bool
	help            bool
}

func parseArgs(args []string) (options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet("tabnews", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&opts.configPath, "config", "c", config.GetEnv(configPathVar, ""), "YAML config file")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flagSet.StringVar(&opts.launcher, "launcher", "", "sign-in launcher: loopback or chrome")
	flagSet.StringVar(&opts.tabsFile, "tabs-file", "", "read tabs from an exported JSON snapshot instead of the browser")
	flagSet.StringVar(&opts.scope, "scope", "", "tabs to collect: current or all windows")
	discovery := flagSet.Bool("discovery", false, "discover the authorization endpoint from the issuer")
	verify := flagSet.Bool("verify-signature", false, "verify ID token signatures against the issuer's keys")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return opts, flagSet, err
	}
	if flagSet.Changed("discovery") {
		opts.discovery = utils.Ptr(*discovery)
	}
	if flagSet.Changed("verify-signature") {
		opts.verifySignature = utils.Ptr(*verify)
	}

	opts.command = "popup"
	switch flagSet.NArg() {
	case 0:
	case 1:
		opts.command = flagSet.Arg(0)
	default:
		return opts, flagSet, fmt.Errorf("unexpected argument: %s", flagSet.Arg(1))
	}
	return opts, flagSet, nil
}

// overrides applies flags on top of the config file.
func (o options) overrides() []config.Override {
	return []config.Override{func(f *config.File) {
		if o.logLevel != "" {
			f.LogLevel = o.logLevel
		}
		if o.launcher != "" {
			f.OAuth.Launcher = o.launcher
		}
		if o.discovery != nil {
			f.OAuth.Discovery = o.discovery
		}
		if o.verifySignature != nil {
			f.OAuth.VerifySignature = o.verifySignature
		}
		if o.tabsFile != "" {
			f.Tabs.SnapshotFile = o.tabsFile
		}
		if o.scope != "" {
			f.Tabs.Scope = o.scope
		}
	}}
}

func run(args []string, out io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	opts, flagSet, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(out, flagSet)
			return nil
		}
		return err
	}
	if opts.help || opts.command == "help" {
		printUsage(out, flagSet)
		return nil
	}

	c, err := config.Load(opts.configPath, opts.overrides()...)
	if err != nil {
		return err
	}

	logOptions := logging.Options{Level: c.GetLogLevel()}
	if opts.command == "popup" {
		logOptions.File = c.GetLogFile()
	}
	closer, err := logging.Setup(logOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(c, out)
	log.Debug().Str("command", opts.command).Str("env", c.GetEnv()).Msg("Starting")
	switch opts.command {
	case "popup":
		return a.popup(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout(ctx)
	case "status":
		return a.status(ctx)
	case "tabs":
		return a.listTabs(ctx)
	case "send":
		return a.send(ctx)
	case "version":
		displayAppname(out, c.GetAppName())
		fmt.Fprintf(out, "version %s\n", version)
		return nil
	}
	return fmt.Errorf("unknown command %q, run tabnews --help", opts.command)
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	displayAppname(out, "Tab News")
	fmt.Fprintf(out, `Turn your open browser tabs into a newsletter.

Usage:
  tabnews [flags] [command]

Commands:
  popup     interactive sign-in and newsletter panel (default)
  login     sign in with your identity provider
  logout    forget the stored session
  status    show who is signed in
  tabs      print the tabs that would be sent
  send      send the current tabs to the newsletter service
  version   print the version

Flags:
%s`, flagSet.FlagUsages())
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
