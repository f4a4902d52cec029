package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) favCmd() *cobra.Command {
	fav := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite cities",
	}
	fav.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			_, cities := c.app.Queries.FavoriteCities(ctx)
			printCities(cmd.OutOrStdout(), cities)
			return nil
		},
	})
	fav.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Add a city to favorites, or remove it when already there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			city, ok := c.app.Catalog.City(id)
			if !ok {
				return fmt.Errorf("city %d not found", id)
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			set, err := c.app.Favorites.Toggle(ctx, id)
			if err != nil {
				return err
			}
			if set.Contains(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "♥ %s added to favorites\n", city.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed from favorites\n", city.Name)
			}
			return nil
		},
	})
	fav.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a city from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			set, err := c.app.Favorites.Remove(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d favorites left\n", len(set))
			return nil
		},
	})
	return fav
}
