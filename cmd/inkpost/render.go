package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/inkpost/analyze"
	"github.com/eringen/inkpost/markdown"
)

var flagStats bool

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render a Markdown file to sanitized HTML",
	Long: `Render a Markdown file to the same sanitized HTML the server produces.
Use "-" to read stdin. With --stats, word count, reading time and excerpt
are written to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src []byte
		var err error
		if args[0] == "-" {
			src, err = io.ReadAll(cmd.InOrStdin())
		} else {
			src, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		html, err := markdown.Render(string(src))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), html)

		if flagStats {
			m := analyze.Measure(string(src))
			fmt.Fprintf(cmd.ErrOrStderr(), "words: %d\nreading time: %d min\nexcerpt: %s\n",
				m.Words, m.ReadingMinutes, m.Excerpt)
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().BoolVar(&flagStats, "stats", false, "print word count, reading time and excerpt")
}
