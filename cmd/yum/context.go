package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/homeyum/yum/internal/app"
)

type commandContext struct {
	configFlag *string
	prefsFlag  *string
	outputFlag *string
	fakeFlag   *bool
}

func newCommandContext(configFlag, prefsFlag, outputFlag *string, fakeFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		prefsFlag:  prefsFlag,
		outputFlag: outputFlag,
		fakeFlag:   fakeFlag,
	}
}

func (c *commandContext) options() app.Options {
	return app.Options{
		ConfigPath: strings.TrimSpace(*c.configFlag),
		PrefsPath:  strings.TrimSpace(*c.prefsFlag),
		Fake:       *c.fakeFlag,
	}
}

func (c *commandContext) output() string {
	return strings.ToLower(strings.TrimSpace(*c.outputFlag))
}

// withApp opens the engine, loads the library and runs fn. The engine is
// closed afterwards so the library snapshot is saved for the next run.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(*app.App) error) error {
	a, err := app.New(cmd.Context(), c.options())
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Prepare(cmd.Context()); err != nil {
		return err
	}
	return fn(a)
}

// withEngine opens the engine without loading the library.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(*app.App) error) error {
	a, err := app.New(cmd.Context(), c.options())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
