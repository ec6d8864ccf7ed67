package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/app"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List the next videos in your feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				load := a.LoadFeed
				if refresh {
					load = a.RefreshFeed
				}
				if err := load(cmd.Context()); err != nil {
					return err
				}
				videos := a.Videos()
				return writeOutput(cmd, ctx.output(), videos, func(w io.Writer) error {
					if len(videos) == 0 {
						_, err := fmt.Fprintln(w, "Feed is empty")
						return err
					}
					rows := make([][]string, 0, len(videos))
					for i, v := range videos {
						rows = append(rows, []string{
							fmt.Sprint(i + 1),
							v.VideoID,
							mealName(v),
							fmt.Sprintf("%ds", v.Duration),
							badges(a, v.VideoID),
						})
					}
					_, err := fmt.Fprint(w, renderTable(
						[]string{"#", "Video", "Meal", "Length", "Saved"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
					))
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload from the top instead of the buffered feed")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Search for short cooking videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withApp(cmd, func(a *app.App) error {
				if err := a.Search(cmd.Context(), query); err != nil {
					return err
				}
				results := a.SearchResults()
				return writeOutput(cmd, ctx.output(), results, func(w io.Writer) error {
					if len(results) == 0 {
						_, err := fmt.Fprintf(w, "No short videos found for %q\n", query)
						return err
					}
					rows := make([][]string, 0, len(results))
					for i, v := range results {
						rows = append(rows, []string{fmt.Sprint(i + 1), v.VideoID, v.Title, v.URL()})
					}
					_, err := fmt.Fprint(w, renderTable(
						[]string{"#", "Video", "Title", "Link"},
						rows,
						[]columnAlignment{alignRight},
					))
					return err
				})
			})
		},
	}
}

func mealName(v api.Video) string {
	if v.MealName != "" {
		return v.MealName
	}
	return v.VideoTitle
}

// badges lists the reaction and try-list state of a video.
func badges(a *app.App, videoID string) string {
	var out []string
	if r, ok := a.Reaction(videoID); ok {
		out = append(out, string(r))
	}
	if a.OnTryList(videoID) {
		out = append(out, "TRY")
	}
	return strings.Join(out, " ")
}
