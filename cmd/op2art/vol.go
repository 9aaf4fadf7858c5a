package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/op2tools/op2art/op2/vol"
)

func volCommand() *cli.Command {
	return &cli.Command{
		Name:  "vol",
		Usage: "work with the game's VOL archives",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list archive contents",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "archive", Usage: "VOL file", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, closeArchive, err := openArchive(cmd.String("archive"))
					if err != nil {
						return err
					}
					defer closeArchive()
					for _, e := range container.Entries() {
						info, err := e.Info()
						if err != nil {
							return err
						}
						fmt.Printf("%10s  %s\n", humanize.Bytes(uint64(info.Size())), e.Name())
					}
					return nil
				},
			},
			{
				Name:  "extract",
				Usage: "extract every readable entry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "archive", Usage: "VOL file", Required: true},
					&cli.StringFlag{Name: "out", Usage: "output directory", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, closeArchive, err := openArchive(cmd.String("archive"))
					if err != nil {
						return err
					}
					defer closeArchive()
					return extractArchive(container, cmd.String("out"))
				},
			},
		},
	}
}

func openArchive(path string) (*vol.Container, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	container, err := vol.NewContainer(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return container, f.Close, nil
}

func extractArchive(container *vol.Container, out string) error {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	for _, e := range container.Entries() {
		src, err := container.Open(e.Name())
		if errors.Is(err, vol.ErrCompressed) {
			fmt.Printf("skipping %s: stored compressed\n", e.Name())
			continue
		}
		if err != nil {
			return err
		}
		if err := copyEntry(src, filepath.Join(out, e.Name())); err != nil {
			return err
		}
		fmt.Printf("extracted %s\n", e.Name())
	}
	return nil
}

func copyEntry(src fs.File, path string) error {
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
