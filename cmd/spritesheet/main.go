// Command spritesheet composes sprite sheets from image files, previews them
// in the terminal and keeps sessions in a local database.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/urfave/cli/v2"

	"badc0de.net/pkg/go-spritesheet/animation"
	"badc0de.net/pkg/go-spritesheet/export"
	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/session"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

const defaultDB = "spritesheet.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func gridFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "columns", Value: grid.Default.Columns, Usage: "grid columns"},
		&cli.IntFlag{Name: "rows", Value: grid.Default.Rows, Usage: "grid rows"},
		&cli.IntFlag{Name: "cell-width", Value: grid.Default.CellWidth, Usage: "cell width in pixels"},
		&cli.IntFlag{Name: "cell-height", Value: grid.Default.CellHeight, Usage: "cell height in pixels"},
		&cli.IntFlag{Name: "gap", Value: grid.Default.Gap, Usage: "gap between cells in pixels"},
	}
}

func gridFromFlags(c *cli.Context) (grid.Config, error) {
	g := grid.Config{
		Columns:    c.Int("columns"),
		Rows:       c.Int("rows"),
		CellWidth:  c.Int("cell-width"),
		CellHeight: c.Int("cell-height"),
		Gap:        c.Int("gap"),
	}
	return g, g.Validate()
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(export.Default.Format), Usage: "output format: png, jpeg, webp or gif"},
		&cli.Float64Flag{Name: "quality", Aliases: []string{"q"}, Value: export.Default.Quality, Usage: "jpeg quality between 0 and 1"},
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Value: export.DefaultFilename, Usage: "output file name, without extension"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
	}
}

func exportFromFlags(c *cli.Context) (export.Config, error) {
	f, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return export.Config{}, err
	}
	cfg := export.Config{Format: f, Quality: c.Float64("quality"), Filename: c.String("name")}
	return cfg, cfg.Validate()
}

// loadSession decodes every file argument into a new session laid out on
// the grid given by flags. Files that fail to decode are reported and
// skipped.
func loadSession(c *cli.Context) (*session.Session, error) {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	g, err := gridFromFlags(c)
	if err != nil {
		return nil, err
	}
	sprites, errs := sprite.LoadFiles(c.Args().Slice())
	if len(sprites) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}
	return session.NewFrom(session.State{
		Sprites:   sprites,
		Grid:      g,
		Animation: animation.Default,
		Export:    export.Default,
	}), nil
}

func main() {
	// glog registers its flags on the standard flag set; parse it empty so
	// logging works, and drive verbosity from the app flags below.
	flag.CommandLine.Parse(nil)
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	app := cli.NewApp()

	app.Name = "spritesheet"
	app.Usage = "compose sprite sheets and flipbooks from images"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		glog.Exit(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"SPRITESHEET_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to session database",
		},
		&cli.IntFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log verbosity",
		},
	}
	app.Before = func(c *cli.Context) error {
		return flag.Set("v", strconv.Itoa(c.Int("verbose")))
	}

	app.Commands = []*cli.Command{
		composeCommand(),
		gifCommand(),
		printCommand(),
		playCommand(),
		saveCommand(),
		loadCommand(),
		sessionsCommand(),
		deleteCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		glog.Exit(err)
	}
}
