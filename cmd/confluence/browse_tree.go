package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/format"
)

const defaultTreeWorkers = 4

// treeNode is one page of a printed tree.
type treeNode struct {
	ID       string      `json:"id" yaml:"id"`
	Title    string      `json:"title" yaml:"title"`
	Children []*treeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func newBrowseTreeCmd(d browseDeps) *cobra.Command {
	var spaceKey, rootID string
	var maxDepth, workers int

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the page tree of a space from its homepage",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			client, err := d.client()
			if err != nil {
				return err
			}
			var root confluence.Page
			if rootID != "" {
				root, err = client.GetPage(c.Context(), rootID)
			} else {
				var space string
				if space, err = spaceKeyOr(spaceKey); err != nil {
					return err
				}
				root, err = client.SpaceHomepage(c.Context(), space)
				if confluence.KindOf(err) == confluence.KindNotFound {
					return fmt.Errorf("space %s has no homepage (or it is not accessible)", space)
				}
			}
			if err != nil {
				return err
			}

			tree := &treeNode{ID: root.ID, Title: root.Title}
			if err := loadTree(c.Context(), client, tree, maxDepth, workers); err != nil {
				return err
			}
			typ, err := cmd.OutputFormat()
			if err != nil {
				return err
			}
			if typ != format.TypeTable {
				return format.Write(c.OutOrStdout(), typ, format.Table{Data: tree})
			}
			return printTree(c.OutOrStdout(), tree, rootID == "")
		},
	}

	flags := treeCmd.Flags()
	flags.StringVar(&spaceKey, "space-key", "", "space key (default: default_space_key)")
	flags.StringVar(&rootID, "root", "", "start from this page id instead of the homepage")
	flags.IntVar(&maxDepth, "max-depth", 0, "levels below the root to print (0 = unlimited)")
	flags.IntVar(&workers, "concurrency", defaultTreeWorkers, "parallel child listings")
	return treeCmd
}

// loadTree fills the tree level by level, listing the children of every node
// of a level concurrently.
func loadTree(ctx context.Context, client confluence.Client, root *treeNode, maxDepth, workers int) error {
	level := []*treeNode{root}
	for depth := 1; len(level) > 0 && (maxDepth <= 0 || depth <= maxDepth); depth++ {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(workers, 1))
		for _, node := range level {
			g.Go(func() error {
				children, err := client.ListAllChildren(gctx, node.ID)
				if err != nil {
					return fmt.Errorf("list children of %s: %w", node.ID, err)
				}
				node.Children = make([]*treeNode, len(children))
				for i, child := range children {
					node.Children[i] = &treeNode{ID: child.ID, Title: child.Title}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		var next []*treeNode
		for _, node := range level {
			next = append(next, node.Children...)
		}
		colors.StructuredDebug("browse", "tree_level", "loaded", nil, "", colors.Fields("depth", depth, "pages", len(next)))
		level = next
	}
	return nil
}

func printTree(w io.Writer, root *treeNode, homepage bool) error {
	suffix := ""
	if homepage {
		suffix = "  (homepage)"
	}
	if _, err := fmt.Fprintf(w, "%s  [id:%s]%s\n", untitled(root.Title), root.ID, suffix); err != nil {
		return err
	}
	return printBranch(w, root.Children, 1)
}

func printBranch(w io.Writer, nodes []*treeNode, depth int) error {
	for _, n := range nodes {
		if _, err := fmt.Fprintf(w, "%s• %s  [id:%s]\n", strings.Repeat("  ", depth), untitled(n.Title), n.ID); err != nil {
			return err
		}
		if err := printBranch(w, n.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func untitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
