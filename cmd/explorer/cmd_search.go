package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"global_explorer/internal/domain"
)

func (c *cli) searchCmd() *cobra.Command {
	var regions, tags, seasons string
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Filter the catalog by text, regions, tags and seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			crit := domain.ParseCriteria(map[string][]string{
				"q":       {strings.Join(args, " ")},
				"regions": {regions},
				"tags":    {tags},
				"seasons": {seasons},
			})
			res := c.app.Queries.Search(crit)
			out := cmd.OutOrStdout()
			printCities(out, res.Items)
			fmt.Fprintf(out, "\n%d of %d cities, %d active filters (?%s)\n",
				len(res.Items), len(c.app.Catalog.Cities()), res.ActiveFilters, res.Share)
			return nil
		},
	}
	cmd.Flags().StringVar(&regions, "regions", "", "comma-separated regions")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&seasons, "seasons", "", "comma-separated seasons")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one city with its rating and details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			v, err := c.app.Queries.GetCity(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			heart := " "
			if v.Favorite {
				heart = "♥"
			}
			fmt.Fprintf(out, "%s %s, %s (%s)\n", heart, v.Name, v.Country, v.Region)
			fmt.Fprintf(out, "  %s\n", v.Summary)
			fmt.Fprintf(out, "  tags: %s   best: %s\n", strings.Join(v.Tags, ", "), strings.Join(v.BestSeasons, ", "))
			fmt.Fprintf(out, "  rating: %.1f from %d comments\n", v.Rating.Average, v.Rating.Count)
			for star := 5; star >= 1; star-- {
				fmt.Fprintf(out, "    %d★ %s %d\n", star, strings.Repeat("█", v.Rating.Histogram[star]), v.Rating.Histogram[star])
			}
			if v.Detail == "" {
				return nil
			}
			fmt.Fprintln(out)
			return renderMarkdown(out, v.Detail, c.plain)
		},
	}
}

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <description>",
		Short: "Turn a trip description into filters with the AI backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.AI == nil {
				return errors.New("AI search is not configured (set COMPLETION_URL or AI_PROVIDER and COMPLETION_KEY)")
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			res, err := c.app.AI.Search(ctx, strings.Join(args, " "))
			if errors.Is(err, domain.ErrTransport) || errors.Is(err, domain.ErrMalformedResponse) {
				return fmt.Errorf("AI couldn't understand that. Try adding a bit more detail or different words (%w)", err)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "regions: %s\ntags:    %s\nseasons: %s\n\n",
				orDash(res.Criteria.Regions), orDash(res.Criteria.Tags), orDash(res.Criteria.Seasons))
			printCities(out, res.Items)
			return nil
		},
	}
}

func printCities(w io.Writer, cities []domain.City) {
	if len(cities) == 0 {
		fmt.Fprintln(w, "no cities match")
		return
	}
	for _, c := range cities {
		fmt.Fprintf(w, "%4d  %-16s %-14s %-14s %s\n", c.ID, c.Name, c.Country, c.Region, strings.Join(c.Tags, ", "))
	}
}

func renderMarkdown(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := fmt.Fprintln(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func orDash(vs []string) string {
	if len(vs) == 0 {
		return "-"
	}
	return strings.Join(vs, ", ")
}
