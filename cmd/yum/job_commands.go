package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/homeyum/yum/internal/app"
	"github.com/homeyum/yum/internal/jobs"
)

type jobOutput struct {
	ID       string        `json:"id" yaml:"id"`
	Kind     string        `json:"kind" yaml:"kind"`
	Status   string        `json:"status" yaml:"status"`
	Draft    bool          `json:"draft,omitempty" yaml:"draft,omitempty"`
	Progress int           `json:"progress" yaml:"progress"`
	Step     string        `json:"step,omitempty" yaml:"step,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Recipe   *recipeOutput `json:"recipe,omitempty" yaml:"recipe,omitempty"`
}

type recipeOutput struct {
	Title    string `json:"title" yaml:"title"`
	Markdown string `json:"markdown" yaml:"markdown"`
	VideoID  string `json:"videoId,omitempty" yaml:"videoId,omitempty"`
}

func newJobOutput(job jobs.Job) jobOutput {
	out := jobOutput{
		ID:       job.ID,
		Kind:     string(job.Kind),
		Status:   string(job.Status),
		Draft:    job.Draft,
		Progress: jobs.Progress(job.Steps, jobs.WeightsFor(job.Kind)),
		Step:     jobs.CurrentStep(job.Steps),
		Error:    job.Error,
	}
	if job.Recipe != nil {
		out.Recipe = &recipeOutput{Title: job.Recipe.Title, Markdown: job.Recipe.Markdown, VideoID: job.Recipe.VideoID}
	}
	return out
}

func printJob(cmd *cobra.Command, format string, job jobs.Job) error {
	out := newJobOutput(job)
	return writeOutput(cmd, format, out, func(w io.Writer) error {
		if out.ID == "" {
			_, err := fmt.Fprintln(w, "No job")
			return err
		}
		status := out.Status
		if out.Draft {
			status = "draft"
		}
		rows := [][]string{
			{"ID", out.ID},
			{"Kind", out.Kind},
			{"Status", status},
			{"Progress", fmt.Sprintf("%d%%", out.Progress)},
		}
		if out.Step != "" {
			rows = append(rows, []string{"Step", out.Step})
		}
		if out.Error != "" {
			rows = append(rows, []string{"Error", out.Error})
		}
		fmt.Fprint(w, renderTable([]string{"Field", "Value"}, rows, nil))
		if out.Recipe != nil && out.Recipe.Markdown != "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, renderMarkdown(w, out.Recipe.Markdown))
		}
		return nil
	})
}

func parseKind(value string) (jobs.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "link", "import", string(jobs.KindLinkImport):
		return jobs.KindLinkImport, nil
	case "prompt", "manual", string(jobs.KindManualPrompt):
		return jobs.KindManualPrompt, nil
	default:
		return "", fmt.Errorf("unknown job kind %q (want link or prompt)", value)
	}
}

// waitJob blocks until the job settles when wait is set.
func waitJob(ctx context.Context, a *app.App, kind jobs.Kind, job jobs.Job, wait bool) (jobs.Job, error) {
	if !wait || job.Status.Terminal() {
		return job, nil
	}
	return a.WaitJob(ctx, kind)
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Start a recipe job",
	}
	submitCmd.AddCommand(newSubmitLinkCommand(ctx))
	submitCmd.AddCommand(newSubmitPromptCommand(ctx))
	return submitCmd
}

func newSubmitLinkCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "link [url]",
		Short: "Import a recipe from a video link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			if strings.TrimSpace(url) == "" {
				var err error
				if url, err = askLine("Video link", "https://www.youtube.com/shorts/..."); err != nil {
					return err
				}
			}
			return ctx.withEngine(cmd, func(a *app.App) error {
				job, err := a.SubmitLink(cmd.Context(), url)
				if err != nil {
					return err
				}
				if job, err = waitJob(cmd.Context(), a, jobs.KindLinkImport, job, wait); err != nil {
					return err
				}
				return printJob(cmd, ctx.output(), job)
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the job to finish")
	return cmd
}

func newSubmitPromptCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "prompt [description...]",
		Short: "Generate a recipe from a description",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				var err error
				if text, err = askText("Describe the recipe", "a spicy peanut noodle bowl for two"); err != nil {
					return err
				}
			}
			return ctx.withEngine(cmd, func(a *app.App) error {
				job, err := a.SubmitPrompt(cmd.Context(), text)
				if err != nil {
					return err
				}
				if job, err = waitJob(cmd.Context(), a, jobs.KindManualPrompt, job, wait); err != nil {
					return err
				}
				return printJob(cmd, ctx.output(), job)
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the draft recipe")
	return cmd
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and finish recipe jobs",
	}
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobReviseCommand(ctx))
	jobCmd.AddCommand(newJobConfirmCommand(ctx))
	return jobCmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	var (
		jobID string
		wait  bool
	)
	cmd := &cobra.Command{
		Use:   "show <link|prompt>",
		Short: "Show the active or most recent job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(a *app.App) error {
				job, err := a.ResumeJob(cmd.Context(), kind, jobID)
				if err != nil {
					return err
				}
				if job, err = waitJob(cmd.Context(), a, kind, job, wait); err != nil {
					return err
				}
				return printJob(cmd, ctx.output(), job)
			})
		},
	}
	cmd.Flags().StringVar(&jobID, "id", "", "Job id (defaults to the active job)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the job to finish")
	return cmd
}

func newJobReviseCommand(ctx *commandContext) *cobra.Command {
	var recipe, image string
	cmd := &cobra.Command{
		Use:   "revise",
		Short: "Request changes to the draft recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(recipe) == "" && strings.TrimSpace(image) == "" {
				return errors.New("pass --recipe and/or --image")
			}
			return ctx.withEngine(cmd, func(a *app.App) error {
				if _, err := a.ResumeJob(cmd.Context(), jobs.KindManualPrompt, ""); err != nil {
					return err
				}
				job, err := a.ReviseRecipe(cmd.Context(), recipe, image)
				if err != nil {
					return err
				}
				if job, err = waitJob(cmd.Context(), a, jobs.KindManualPrompt, job, true); err != nil {
					return err
				}
				return printJob(cmd, ctx.output(), job)
			})
		},
	}
	cmd.Flags().StringVar(&recipe, "recipe", "", "Changes to the recipe text")
	cmd.Flags().StringVar(&image, "image", "", "Changes to the recipe image")
	return cmd
}

func newJobConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Accept the draft recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(a *app.App) error {
				if _, err := a.ResumeJob(cmd.Context(), jobs.KindManualPrompt, ""); err != nil {
					return err
				}
				job, err := a.ConfirmRecipe(cmd.Context())
				if err != nil {
					return err
				}
				return printJob(cmd, ctx.output(), job)
			})
		},
	}
}

var errNotInteractive = errors.New("input required: pass it as an argument when not running in a terminal")

func askLine(title, placeholder string) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", errNotInteractive
	}
	var value string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Placeholder(placeholder).
			Value(&value),
	)).Run()
	return value, err
}

func askText(title, placeholder string) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", errNotInteractive
	}
	var value string
	err := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title(title).
			Placeholder(placeholder).
			Value(&value),
	)).Run()
	return value, err
}
