package main

import (
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync"

	"github.com/golang/glog"
	"github.com/urfave/cli/v2"

	"badc0de.net/pkg/go-spritesheet/animation"
	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/imageprint"
)

func terminalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "mode", Value: "24bit", Usage: "terminal output: 24bit, 256, nocolor, iterm or rasterm"},
		&cli.BoolFlag{Name: "blanks", Value: true, Usage: "paint cells with spaces instead of shading characters"},
		&cli.BoolFlag{Name: "downsize", Value: true, Usage: "shrink images to fit the terminal"},
		&cli.IntFlag{Name: "sixel-colors", Value: imageprint.DefaultSixelColors, Usage: "palette size for sixel graphics"},
	}
}

type terminalOut struct {
	p        *imageprint.Printer
	ts       imageprint.TermSize
	downsize bool
}

func newTerminalOut(c *cli.Context) (*terminalOut, error) {
	mode, err := imageprint.ParseMode(c.String("mode"))
	if err != nil {
		return nil, err
	}
	out := &terminalOut{
		p:        &imageprint.Printer{W: os.Stdout, Mode: mode, Blanks: c.Bool("blanks"), SixelColors: c.Int("sixel-colors")},
		downsize: c.Bool("downsize"),
	}
	if out.downsize {
		if out.ts, err = imageprint.GetTermSize(); err != nil {
			glog.V(1).Infof("terminal size unknown: %v", err)
			out.downsize = false
		}
	}
	return out, nil
}

func (o *terminalOut) print(img image.Image, name string) error {
	if o.downsize {
		img = imageprint.Fit(img, o.ts, o.p.Mode)
	}
	return o.p.Print(img, name)
}

func printCommand() *cli.Command {
	return &cli.Command{
		Name:      "print",
		Usage:     "Print the sprite sheet preview on the terminal",
		ArgsUsage: "FILE...",
		Flags:     append(gridFlags(), terminalFlags()...),
		Action: func(c *cli.Context) error {
			sess, err := loadSession(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			out, err := newTerminalOut(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			snap := sess.Snapshot()
			img, err := compositor.New(compositor.DefaultOptions()).RenderSnapshot(c.Context, snap.Sprites, snap.Grid)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			if err := out.print(img, "sheet.png"); err != nil {
				return cli.NewExitError(err, 1)
			}
			return nil
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play image files as a flipbook on the terminal",
		ArgsUsage: "FILE...",
		Flags: append(append(gridFlags(), terminalFlags()...),
			&cli.IntFlag{Name: "fps", Value: animation.Default.FrameRate, Usage: "frames per second"},
			&cli.IntFlag{Name: "box", Value: 64, Usage: "frame size in pixels"},
			&cli.IntFlag{Name: "loops", Value: 1, Usage: "times to play the whole flipbook; 0 plays until interrupted"},
		),
		Action: func(c *cli.Context) error {
			sess, err := loadSession(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			out, err := newTerminalOut(c)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			frames := c.Int("loops") * len(sess.Sprites())

			var (
				once  sync.Once
				drawn int
				done  = make(chan struct{})
			)
			cfg := animation.Default
			cfg.FrameRate = c.Int("fps")
			player, err := animation.NewPlayer(cfg, sess.Sprites, animation.Options{
				Box: c.Int("box"),
				OnFrame: func(i int, img *image.RGBA) {
					fmt.Print("\x1b[H\x1b[2J")
					if err := out.print(img, fmt.Sprintf("frame%d.png", i)); err != nil {
						glog.Errorf("frame %d: %v", i, err)
					}
					drawn++
					if frames > 0 && drawn >= frames {
						once.Do(func() { close(done) })
					}
				},
				OnCommit: func(i int) {
					fmt.Printf("stopped at frame %d\n", i)
				},
			})
			if err != nil {
				return cli.NewExitError(err, 1)
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			player.Play()
			select {
			case <-done:
			case <-interrupt:
			case <-c.Context.Done():
			}
			player.Close()
			return nil
		},
	}
}
