package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"gifopt/config"
	"gifopt/log"
	"gifopt/optimize"
)

// Exit codes reported by the gifopt binary.
const (
	ExitSuccess  = 0
	ExitFailure  = 1
	ExitNotFound = 2
)

// Flags that take a positive integer. Malformed values are ignored.
var intFlags = []string{"max-width", "max-height", "colors", "fps", "workers"}

// Cmd is the gifopt command line.
var Cmd = New()

// New builds the gifopt command.
func New() *cli.Command {
	return &cli.Command{
		Name:      "gifopt",
		Usage:     "Shrink an animated gif by lowering its frame rate, size and palette",
		ArgsUsage: "<input.gif>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "max-width",
				Usage: fmt.Sprintf("Maximum output width in pixels (default %d)", config.DefaultMaxWidth),
			},
			&cli.StringFlag{
				Name:  "max-height",
				Usage: fmt.Sprintf("Maximum output height in pixels (default %d)", config.DefaultMaxHeight),
			},
			&cli.StringFlag{
				Name:  "colors",
				Usage: fmt.Sprintf("Palette size, 2 to 256 (default %d)", config.DefaultColors),
			},
			&cli.StringFlag{
				Name:  "fps",
				Usage: fmt.Sprintf("Target frame rate (default %d)", config.DefaultFPS),
			},
			&cli.StringFlag{
				Name:  "workers",
				Usage: "Frames processed in parallel (default: number of CPUs)",
			},
			&cli.StringFlag{
				Name:  "palette",
				Usage: "Palette mode: local (one per frame) or shared (one for all frames)",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with default settings",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Action: action,
	}
}

func action(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) == 0 {
		_ = cli.ShowAppHelp(c)
		return fmt.Errorf("%w: missing input path", optimize.ErrUsage)
	}
	input := args[0]

	cfg, err := resolveConfig(c, args[1:])
	if err != nil {
		return fmt.Errorf("%w: %v", optimize.ErrUsage, err)
	}

	logger := log.NewLogger(input, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	res, err := optimize.New(cfg, logger).Run(ctx, input)
	if err != nil {
		logger.Error("optimize failed", map[string]any{"error": err.Error()})
		return err
	}

	logger.Sugar().Infof("frames %d -> %d, %d -> %d bytes",
		res.SourceFrames, res.Frames, res.InputBytes, res.OutputBytes)
	fmt.Fprintln(c.Root().Writer, res.OutputPath)
	return nil
}

// resolveConfig layers defaults, the optional config file and the flags.
// Flags given after the input path are honoured as well.
func resolveConfig(c *cli.Command, rest []string) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	values := make(map[string]string)
	for _, name := range intFlags {
		if c.IsSet(name) {
			values[name] = c.String(name)
		}
	}
	for _, name := range []string{"palette", "log-level"} {
		if c.IsSet(name) {
			values[name] = c.String(name)
		}
	}
	for name, v := range trailingFlags(rest) {
		values[name] = v
	}

	cfg.MaxWidth = config.ParseInt(values["max-width"], cfg.MaxWidth)
	cfg.MaxHeight = config.ParseInt(values["max-height"], cfg.MaxHeight)
	cfg.Colors = config.ParseInt(values["colors"], cfg.Colors)
	cfg.FPS = config.ParseInt(values["fps"], cfg.FPS)
	cfg.Workers = config.ParseInt(values["workers"], cfg.Workers)
	if v := values["palette"]; v != "" {
		cfg.Palette = config.PaletteMode(v)
	}
	if v := values["log-level"]; v != "" {
		cfg.LogLevel = v
	}
	cfg.Normalize()
	return cfg, nil
}

// trailingFlags picks "--name value" and "--name=value" pairs out of the
// arguments that follow the input path. Unknown names are ignored.
func trailingFlags(args []string) map[string]string {
	known := map[string]bool{"palette": true, "log-level": true}
	for _, name := range intFlags {
		known[name] = true
	}

	out := make(map[string]string)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		value := ""
		hasValue := false
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, value, hasValue = name[:eq], name[eq+1:], true
		}
		if !known[name] {
			continue
		}
		if !hasValue && i+1 < len(args) {
			i++
			value = args[i]
		}
		out[name] = value
	}
	return out
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, optimize.ErrNotFound):
		return ExitNotFound
	default:
		var exitCoder cli.ExitCoder
		if errors.As(err, &exitCoder) {
			return exitCoder.ExitCode()
		}
		return ExitFailure
	}
}
