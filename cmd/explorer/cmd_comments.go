package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"global_explorer/internal/domain"
)

func (c *cli) commentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <cityID>",
		Short: "List a city's comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			cs, err := c.app.Comments.ListByCity(ctx, id)
			if err != nil {
				return err
			}
			printComments(cmd.OutOrStdout(), cs, time.Now())
			return nil
		},
	}
}

func (c *cli) commentCmd() *cobra.Command {
	comment := &cobra.Command{
		Use:   "comment",
		Short: "Add, upvote or remove a comment",
	}

	var author, text string
	var rating int
	add := &cobra.Command{
		Use:   "add <cityID>",
		Short: "Rate a city and leave a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, ok := c.app.Catalog.City(id); !ok {
				return fmt.Errorf("city %d not found", id)
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			cm, err := c.app.Comments.Add(ctx, id, author, rating, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "comment %s saved\n", cm.ID)
			return nil
		},
	}
	add.Flags().StringVar(&author, "author", "", "your name (max 50 characters)")
	add.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	add.Flags().StringVar(&text, "text", "", "comment text (max 500 characters)")

	helpful := &cobra.Command{
		Use:   "helpful <commentID>",
		Short: "Mark a comment as helpful",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			cm, found, err := c.app.Comments.MarkHelpful(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "no such comment")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d people found this helpful\n", cm.Helpful)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <commentID>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			return c.app.Comments.Remove(ctx, args[0])
		},
	}

	comment.AddCommand(add, helpful, rm)
	return comment
}

func printComments(w io.Writer, cs []domain.Comment, now time.Time) {
	if len(cs) == 0 {
		fmt.Fprintln(w, "no comments yet")
		return
	}
	for _, c := range cs {
		when := humanize.RelTime(time.UnixMilli(c.Timestamp), now, "ago", "from now")
		fmt.Fprintf(w, "%s  %s  %s (%s)\n", strings.Repeat("★", c.Rating)+strings.Repeat("☆", 5-c.Rating), c.Author, when, c.ID)
		fmt.Fprintf(w, "    %s\n", c.Text)
		if c.Helpful > 0 {
			fmt.Fprintf(w, "    %s found this helpful\n", humanize.Comma(int64(c.Helpful)))
		}
	}
}
