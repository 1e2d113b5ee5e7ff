package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"newsdaily-web/internal/posts"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Fill an empty store with posts from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		n, err := a.Seed(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if n == 0 {
			fmt.Fprintln(out, color.New(color.FgYellow).Sprint("Store already has posts, nothing seeded"))
			return nil
		}
		fmt.Fprintf(out, "%s %d posts\n", color.New(color.FgHiGreen, color.Bold).Sprint("Seeded"), n)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <feed-url>",
	Short: "Import the items of an RSS or Atom feed as posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		result, err := a.Feeds.ImportURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d posts from %s (%d skipped)\n",
			color.New(color.FgHiGreen, color.Bold).Sprint("Imported"),
			result.Imported, result.Feed, result.Skipped)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show site statistics and the most viewed posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		out := cmd.OutOrStdout()
		stats := a.Posts.Stats()
		bold := color.New(color.Bold)
		fmt.Fprintf(out, "%s %d  %s %d  %s %d  %s %d\n\n",
			bold.Sprint("Posts:"), stats.Total,
			bold.Sprint("Views:"), stats.Views,
			bold.Sprint("This week:"), stats.ThisWeek,
			bold.Sprint("Categories:"), stats.Categories)

		writePostsTable(out, a.Posts.All(), statsTopN)
		return nil
	},
}

const statsTopN = 10

var deletePostCmd = &cobra.Command{
	Use:   "delete-post <id>",
	Short: "Delete a post together with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := posts.ParseID(args[0])
		if err != nil {
			return err
		}
		a, logger, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		removed, found, err := a.Services().DeletePost(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("post %s not found", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s post %s and %d comments\n",
			color.New(color.FgHiRed, color.Bold).Sprint("Deleted"), id, removed)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(seedCmd, importCmd, statsCmd, deletePostCmd)
}

// writePostsTable prints the n most viewed posts, leader highlighted.
func writePostsTable(out io.Writer, all []posts.Post, n int) {
	ranked := posts.SortByViews(all)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "ID", "Title", "Category", "Views", "Likes", "Bookmarks"})
	for i, p := range ranked {
		row := []string{
			strconv.Itoa(i + 1),
			p.ID.String(),
			p.Title,
			p.Category,
			strconv.Itoa(p.Views),
			strconv.Itoa(p.Likes),
			strconv.Itoa(p.Bookmarks),
		}
		if i > 0 {
			table.Append(row)
			continue
		}
		style := make([]tablewriter.Colors, len(row))
		for j := range style {
			style[j] = tablewriter.Colors{tablewriter.FgGreenColor, tablewriter.Bold}
		}
		table.Rich(row, style)
	}
	table.Render()
}
