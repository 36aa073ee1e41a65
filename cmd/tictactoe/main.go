package main

import (
	"github.com/alecthomas/kong"
)

var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config   string `help:"Path to config file" type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error); overrides config"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Print version and exit"`
	Play    PlayCmd          `cmd:"" help:"Run random agents against the environment"`
	Serve   ServeCmd         `cmd:"" help:"Serve environments over gRPC"`
	Window  WindowCmd        `cmd:"" help:"Play in a window (human render mode)"`
	Tui     TuiCmd           `cmd:"" help:"Play in the terminal"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tictactoe"),
		kong.Description("Tic-tac-toe reinforcement learning environment"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
