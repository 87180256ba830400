package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"badc0de.net/pkg/go-spritesheet/animation"
	"badc0de.net/pkg/go-spritesheet/session"
	"badc0de.net/pkg/go-spritesheet/sprite"
	"badc0de.net/pkg/go-spritesheet/store"
)

func saveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save image files and settings as a named session",
		ArgsUsage: "NAME FILE...",
		Flags:     append(gridFlags(), exportFlags()[:3]...),
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
			}
			name := c.Args().First()

			g, err := gridFromFlags(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			cfg, err := exportFromFlags(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}

			st, err := store.Open(c.String("db"))
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			defer st.Close()

			sprites, errs := sprite.LoadFiles(c.Args().Tail())
			if len(sprites) == 0 && len(errs) > 0 {
				return cli.NewExitError(errs[0], 1)
			}
			sess := session.NewFrom(session.State{
				Sprites:   sprites,
				Grid:      g,
				Animation: animation.Default,
				Export:    cfg,
			})

			if err := st.Save(name, sess.Snapshot()); err != nil {
				return cli.NewExitError(err, 1)
			}
			fmt.Printf("saved %q with %d sprites\n", name, len(sess.Sprites()))
			return nil
		},
	}
}

func loadCommand() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Compose the sprite sheet of a saved session",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
			}
			st, err := store.Open(c.String("db"))
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			defer st.Close()

			state, err := st.Load(c.Args().First())
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			snap := session.NewFrom(state).Snapshot()
			if err := writeSheet(c.Context, snap, snap.Export, c.String("out")); err != nil {
				return cli.NewExitError(err, 1)
			}
			return nil
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List saved sessions",
		Action: func(c *cli.Context) error {
			st, err := store.Open(c.String("db"))
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			defer st.Close()

			infos, err := st.List()
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSPRITES\tSAVED")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%d\t%s\n", info.Name, info.Sprites, info.Saved.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved session",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
			}
			st, err := store.Open(c.String("db"))
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			defer st.Close()

			if err := st.Delete(c.Args().First()); err != nil {
				return cli.NewExitError(err, 1)
			}
			return nil
		},
	}
}
