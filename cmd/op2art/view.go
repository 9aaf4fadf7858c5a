package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/op2tools/op2art/internal/rendering"
	"github.com/op2tools/op2art/op2/render"
)

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "play one animation in a window",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prt", Usage: "PRT file", Required: true},
			&cli.StringFlag{Name: "bmp", Usage: "companion bitmap atlas", Required: true},
			&cli.IntFlag{Name: "anim", Usage: "animation index", Value: 0},
			&cli.IntFlag{Name: "fps", Usage: "playback rate", Value: 8},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			file, a, err := loadPair(cmd.String("prt"), cmd.String("bmp"))
			if err != nil {
				return err
			}
			animIndex := int(cmd.Int("anim"))
			frames, err := render.Animation(file, a, animIndex)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("op2art: animation %d of %d", animIndex, len(file.Animations))
			return rendering.Show(title, frames, int(cmd.Int("fps")))
		},
	}
}
