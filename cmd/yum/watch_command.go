package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/homeyum/yum/internal/app"
	"github.com/homeyum/yum/internal/logging"
	"github.com/homeyum/yum/internal/ui"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		theme string
		tick  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme != "" {
				if err := validateTheme(theme); err != nil {
					return err
				}
			}
			a, err := app.New(cmd.Context(), ctx.options())
			if err != nil {
				return err
			}
			defer a.Close()

			// Start failures leave the engine usable offline; the UI shows them.
			if err := a.Start(cmd.Context()); err != nil {
				a.Logger().Warn("start incomplete", logging.Error(err))
			}
			return ui.Run(ui.Options{
				Context:   cmd.Context(),
				Engine:    a,
				PollTick:  tick,
				ThemeName: theme,
			})
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "UI theme (Nightfox, Kanagawa or Slate)")
	cmd.Flags().DurationVar(&tick, "tick", ui.DefaultUIInterval, "UI refresh interval")
	return cmd
}

func validateTheme(name string) error {
	for _, t := range ui.ThemeNames() {
		if t == name {
			return nil
		}
	}
	return fmt.Errorf("unknown theme %q (want one of %v)", name, ui.ThemeNames())
}
