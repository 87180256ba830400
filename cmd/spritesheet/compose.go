package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/export"
	"badc0de.net/pkg/go-spritesheet/session"
)

func composeCommand() *cli.Command {
	return &cli.Command{
		Name:      "compose",
		Usage:     "Compose image files into a sprite sheet",
		ArgsUsage: "FILE...",
		Flags:     append(gridFlags(), exportFlags()...),
		Action: func(c *cli.Context) error {
			sess, err := loadSession(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			cfg, err := exportFromFlags(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			if err := writeSheet(c.Context, sess.Snapshot(), cfg, c.String("out")); err != nil {
				return cli.NewExitError(err, 1)
			}
			return nil
		},
	}
}

func writeSheet(ctx context.Context, snap session.Snapshot, cfg export.Config, dir string) error {
	sprites := snap.Ordered()
	if n, capacity := len(sprites), snap.Grid.Capacity(); n > capacity {
		fmt.Printf("grid holds %d sprites; leaving out the last %d\n", capacity, n-capacity)
	}
	blob, err := export.Export(ctx, compositor.New(export.RendererOptions()), sprites, snap.Grid, cfg)
	if err != nil {
		return err
	}
	d := export.DirDeliverer{Dir: dir}
	if err := d.Deliver(blob); err != nil {
		return err
	}
	fmt.Println(d.Path(blob))
	return nil
}

func gifCommand() *cli.Command {
	return &cli.Command{
		Name:      "gif",
		Usage:     "Write image files as an animated GIF flipbook",
		ArgsUsage: "FILE...",
		Flags: append(gridFlags(),
			&cli.IntFlag{Name: "fps", Value: 12, Usage: "frames per second"},
			&cli.IntFlag{Name: "box", Value: compositor.DefaultPreviewBox, Usage: "frame size in pixels"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Value: export.DefaultFilename, Usage: "output file name, without extension"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
		),
		Action: func(c *cli.Context) error {
			sess, err := loadSession(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			blob, err := export.AnimatedGIF(c.Context, sess.Sprites(), c.Int("box"), c.Int("fps"), c.String("name"))
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			d := export.DirDeliverer{Dir: c.String("out")}
			if err := d.Deliver(blob); err != nil {
				return cli.NewExitError(err, 1)
			}
			fmt.Println(d.Path(blob))
			return nil
		},
	}
}
