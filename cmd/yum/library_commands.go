package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/app"
	"github.com/homeyum/yum/internal/stores"
)

func newReactCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "react <video-id> <like|dislike>",
		Short: "Like or dislike a video; repeating a reaction clears it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reaction := api.ReactionType(strings.ToUpper(strings.TrimSpace(args[1])))
			if !reaction.Valid() {
				return fmt.Errorf("unknown reaction %q (want like or dislike)", args[1])
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				got, present, err := a.React(cmd.Context(), args[0], reaction)
				if err != nil {
					return err
				}
				result := struct {
					VideoID  string `json:"videoId" yaml:"videoId"`
					Reaction string `json:"reaction,omitempty" yaml:"reaction,omitempty"`
				}{VideoID: args[0]}
				if present {
					result.Reaction = string(got)
				}
				return writeOutput(cmd, ctx.output(), result, func(w io.Writer) error {
					if !present {
						_, err := fmt.Fprintf(w, "Cleared reaction on %s\n", args[0])
						return err
					}
					_, err := fmt.Fprintf(w, "%s %s\n", strings.ToLower(string(got))+"d", args[0])
					return err
				})
			})
		},
	}
}

func newTryCommand(ctx *commandContext) *cobra.Command {
	tryCmd := &cobra.Command{
		Use:   "try",
		Short: "Manage the list of recipes to try",
	}

	var notes string
	addCmd := &cobra.Command{
		Use:   "add <video-id>",
		Short: "Add a video to the try list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				item, err := a.Library().TryList.Add(cmd.Context(), args[0], notes)
				if err != nil {
					return err
				}
				return writeOutput(cmd, ctx.output(), item, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added %s to the try list\n", args[0])
					return err
				})
			})
		},
	}
	addCmd.Flags().StringVar(&notes, "notes", "", "Notes for the entry")

	removeCmd := &cobra.Command{
		Use:   "remove <video-id>",
		Short: "Remove a video from the try list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				if err := a.Library().TryList.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the try list\n", args[0])
				return err
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the try list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				items := a.TryList()
				return writeOutput(cmd, ctx.output(), items, func(w io.Writer) error {
					if len(items) == 0 {
						_, err := fmt.Fprintln(w, "Try list is empty")
						return err
					}
					rows := make([][]string, 0, len(items))
					for _, item := range items {
						rows = append(rows, []string{item.VideoID, item.AddedDate, item.Notes})
					}
					_, err := fmt.Fprint(w, renderTable([]string{"Video", "Added", "Notes"}, rows, nil))
					return err
				})
			})
		},
	}

	tryCmd.AddCommand(addCmd, removeCmd, listCmd)
	return tryCmd
}

func newRateCommand(ctx *commandContext) *cobra.Command {
	var mealID, comment string
	cmd := &cobra.Command{
		Use:   "rate <video-id> <1-5>",
		Short: "Rate a video you cooked",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil || rating < stores.MinRating || rating > stores.MaxRating {
				return fmt.Errorf("rating must be a number from %d to %d", stores.MinRating, stores.MaxRating)
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				got, err := a.Rate(cmd.Context(), api.RateRequest{
					VideoID: args[0],
					Rating:  rating,
					MealID:  mealID,
					Comment: comment,
				})
				if err != nil {
					return err
				}
				return writeOutput(cmd, ctx.output(), got, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Rated %s %d/5\n", got.VideoID, got.Rating)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&mealID, "meal", "", "Scheduled meal id the rating is for")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment on the meal")
	return cmd
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Plan meals",
	}

	var (
		tried bool
		date  string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show scheduled meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				meals := a.Meals()
				switch {
				case tried:
					meals = a.Library().Schedule.Tried()
				case date != "":
					meals = a.Library().Schedule.MealsByDate(date)
				}
				return printMeals(cmd, ctx.output(), meals)
			})
		},
	}
	listCmd.Flags().BoolVar(&tried, "tried", false, "Only meals you rated")
	listCmd.Flags().StringVar(&date, "date", "", "Only meals on this date (YYYY-MM-DD)")

	addCmd := &cobra.Command{
		Use:   "add <video-id> <date> [time]",
		Short: "Schedule a meal; time defaults to your preferred meal time",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clock := ""
			if len(args) == 3 {
				clock = args[2]
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				meal, err := a.ScheduleMeal(cmd.Context(), args[0], args[1], clock)
				if err != nil {
					return err
				}
				return printMeals(cmd, ctx.output(), []api.Meal{meal})
			})
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <meal-id> <date> <time>",
		Short: "Move a scheduled meal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				meal, err := a.MoveMeal(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return printMeals(cmd, ctx.output(), []api.Meal{meal})
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <meal-id>",
		Short: "Remove a scheduled meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				if err := a.DeleteMeal(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %s\n", args[0])
				return err
			})
		},
	}

	scheduleCmd.AddCommand(listCmd, addCmd, moveCmd, deleteCmd)
	return scheduleCmd
}

func printMeals(cmd *cobra.Command, format string, meals []api.Meal) error {
	return writeOutput(cmd, format, meals, func(w io.Writer) error {
		if len(meals) == 0 {
			_, err := fmt.Fprintln(w, "No meals scheduled")
			return err
		}
		rows := make([][]string, 0, len(meals))
		for _, m := range meals {
			name := m.VideoID
			if m.Video != nil && m.Video.MealName != "" {
				name = m.Video.MealName
			}
			rating := ""
			if m.Rating != nil {
				rating = fmt.Sprintf("%d/5", m.Rating.Rating)
			}
			rows = append(rows, []string{m.MealID, m.MealDate, m.MealTime, stores.MealPeriod(m.MealTime), name, rating})
		}
		_, err := fmt.Fprint(w, renderTable([]string{"Meal", "Date", "Time", "Period", "Recipe", "Rating"}, rows, nil))
		return err
	})
}
