package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/convert"
)

// converterFactory builds the Markdown converter for --engine and --pandoc-args.
type converterFactory func(engine, pandocArgs string) (convert.Converter, error)

func newConverter(engine, pandocArgs string) (convert.Converter, error) {
	args, err := convert.ParseArgs(pandocArgs)
	if err != nil {
		return nil, err
	}
	if engine == "" {
		engine = config.Get("convert_engine", convert.EngineAuto)
	}
	return convert.New(engine, convert.WithPath(config.Get("pandoc_path", "pandoc")), convert.WithArgs(args...))
}

// converterFlags are shared by every command that converts Markdown.
type converterFlags struct {
	engine     string
	pandocArgs string
}

func (f *converterFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.engine, "engine", "", "conversion engine: auto, pandoc, goldmark (default: convert_engine or auto)")
	c.Flags().StringVar(&f.pandocArgs, "pandoc-args", "", `extra pandoc arguments, e.g. "--toc --shift-heading-level-by=1"`)
}

// NewConvertCmd creates the convert command.
func NewConvertCmd(converters converterFactory) *cobra.Command {
	var cf converterFlags
	var output string

	convertCmd := &cobra.Command{
		Use:   "convert <input.md>",
		Short: "Convert Markdown to Confluence HTML without uploading",
		Long: `Convert a GitHub flavoured Markdown file to the HTML stored by Confluence.

The HTML is written to --output, or to stdout when it is omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			conv, err := converters(cf.engine, cf.pandocArgs)
			if err != nil {
				return err
			}
			if output != "" {
				if err := convert.File(c.Context(), conv, args[0], output); err != nil {
					return err
				}
				colors.Success(fmt.Sprintf("Wrote %s (%s)", output, conv.Name()))
				return nil
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			html, err := conv.ToHTML(c.Context(), src)
			if err != nil {
				return err
			}
			_, err = c.OutOrStdout().Write(html)
			return err
		},
	}
	cf.register(convertCmd)
	convertCmd.Flags().StringVarP(&output, "output", "o", "", "HTML output file")
	return convertCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewConvertCmd(newConverter))
}
