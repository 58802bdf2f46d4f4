package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/mattneel/zgbc/gb"
)

func main() {
	app := cli.NewApp()
	app.Name = "zgbc"
	app.Description = "A Game Boy emulator"
	app.Usage = "zgbc [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a terminal interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Capture audio to a WAV file (headless mode)",
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Path to the battery save file",
		},
		cli.StringFlag{
			Name:  "state-in",
			Usage: "Restore a save state before running",
		},
		cli.StringFlag{
			Name:  "state-out",
			Usage: "Write a save state after a headless run",
		},
		cli.IntFlag{
			Name:  "buttons",
			Usage: "Button mask held for the whole headless run",
		},
		cli.BoolFlag{
			Name:  "no-video",
			Usage: "Skip framebuffer rendering in headless mode",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	romData, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	machine := gb.New()
	if err := machine.LoadROM(romData); err != nil {
		return err
	}
	slog.Info("loaded ROM", "title", machine.Title(), "path", romPath)

	savePath := c.String("save")
	if savePath != "" {
		if data, err := os.ReadFile(savePath); err == nil {
			machine.LoadSaveData(data)
			slog.Info("loaded battery save", "path", savePath)
		}
	}

	if path := c.String("state-in"); path != "" {
		blob, rerr := os.ReadFile(path)
		if rerr != nil {
			return fmt.Errorf("reading save state: %w", rerr)
		}
		if lerr := machine.LoadState(blob); lerr != nil {
			return lerr
		}
		slog.Info("restored save state", "path", path)
	}

	if c.Bool("headless") {
		machine.SetButtons(uint8(c.Int("buttons")))
		err = runHeadless(machine, c.Int("frames"), c.String("wav"), c.Bool("no-video"))
		if err == nil {
			if path := c.String("state-out"); path != "" {
				if werr := os.WriteFile(path, machine.SaveState(), 0644); werr != nil {
					return fmt.Errorf("writing save state: %w", werr)
				}
				slog.Info("wrote save state", "path", path)
			}
		}
	} else {
		err = runTerminal(machine)
	}
	if err != nil {
		return err
	}

	if savePath != "" {
		if data := machine.SaveData(); data != nil {
			if werr := os.WriteFile(savePath, data, 0644); werr != nil {
				return fmt.Errorf("writing battery save: %w", werr)
			}
			slog.Info("wrote battery save", "path", savePath, "bytes", len(data))
		}
	}
	return nil
}

func runHeadless(machine *gb.Machine, frames int, wavPath string, noVideo bool) error {
	if frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}
	if noVideo {
		machine.SetRenderGraphics(false)
	}

	var capture *wavCapture
	if wavPath != "" {
		var err error
		capture, err = newWAVCapture(wavPath)
		if err != nil {
			return err
		}
	} else {
		machine.SetRenderAudio(false)
	}

	slog.Info("running headless", "frames", frames)
	for i := 0; i < frames; i++ {
		machine.RunFrame()
		if capture != nil {
			if err := capture.drain(machine); err != nil {
				return err
			}
		}
	}

	if capture != nil {
		if err := capture.close(); err != nil {
			return err
		}
		slog.Info("wrote audio capture", "path", wavPath)
	}
	slog.Info("headless run complete", "frames", frames, "cycles", machine.Cycles())
	return nil
}
