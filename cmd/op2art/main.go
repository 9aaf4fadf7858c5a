// Command op2art inspects, extracts and rebuilds the Outpost 2 art
// files: the PRT container and its companion bitmap atlas.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/op2tools/op2art/op2/prt"
	"github.com/op2tools/op2art/utils"
)

func main() {
	cmd := &cli.Command{
		Name:  "op2art",
		Usage: "inspect, extract and rebuild Outpost 2 art files",
		Commands: []*cli.Command{
			inspectCommand(),
			extractCommand(),
			buildCommand(),
			viewCommand(),
			volCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "op2art:", err)
		os.Exit(1)
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "summarize a PRT container",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prt", Usage: "PRT file", Required: true},
			&cli.BoolFlag{Name: "hex", Usage: "hex dump the trailing data"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(cmd.String("prt"))
			if err != nil {
				return err
			}
			file, err := prt.Decode(data)
			if err != nil {
				return err
			}

			var frames, subframes, unknownTypes int64
			for _, anim := range file.Animations {
				frames += int64(len(anim.Frames))
				for _, frame := range anim.Frames {
					subframes += int64(len(frame.Subframes))
				}
			}
			for _, b := range file.Bitmaps {
				if !b.Type.Known() {
					unknownTypes++
				}
			}

			fmt.Printf("%s (%s)\n", cmd.String("prt"), humanize.Bytes(uint64(len(data))))
			fmt.Printf("  palettes:    %d\n", len(file.Palettes))
			fmt.Printf("  bitmaps:     %s", humanize.Comma(int64(len(file.Bitmaps))))
			if unknownTypes > 0 {
				fmt.Printf(" (%d with unrecognized type tags)", unknownTypes)
			}
			fmt.Println()
			fmt.Printf("  animations:  %d (%s frames, %s subframes)\n",
				len(file.Animations), humanize.Comma(frames), humanize.Comma(subframes))
			fmt.Printf("  optional count (unknown field): %d\n", file.OptionalCount)
			fmt.Printf("  trailing data: %s\n", humanize.Bytes(uint64(len(file.Extra))))
			if cmd.Bool("hex") && len(file.Extra) > 0 {
				utils.HexDump(os.Stdout, file.Extra)
			}
			return nil
		},
	}
}
