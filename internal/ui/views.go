package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/prefetch"
	"github.com/homeyum/yum/internal/stores"
)

// renderMain stacks the header, the active view and the footer.
func (m Model) renderMain() string {
	bodyHeight := max(1, m.height-2)
	var body string
	switch m.currentView {
	case ViewFeed:
		body = m.renderFeed(bodyHeight)
	case ViewSearch:
		body = m.renderSearch(bodyHeight)
	case ViewJobs:
		body = m.renderJobs(bodyHeight)
	case ViewLibrary:
		body = m.renderLibrary(bodyHeight)
	case ViewActivity:
		body = m.renderActivity()
	}
	body = lipgloss.NewStyle().Width(m.width).Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

// videoRow is one line of a video list.
type videoRow struct {
	title  string
	detail string
	id     string
}

func (m Model) renderFeed(height int) string {
	rows := make([]videoRow, 0, len(m.snapshot.Feed))
	for _, v := range m.snapshot.Feed {
		title := v.MealName
		if title == "" {
			title = v.VideoTitle
		}
		detail := v.MealDescription
		if v.Duration > 0 {
			detail = strings.TrimSpace(fmt.Sprintf("%ds  %s", v.Duration, detail))
		}
		rows = append(rows, videoRow{title: title, detail: detail, id: v.VideoID})
	}
	return m.renderVideoList(rows, m.cursor[ViewFeed], m.snapshot.FeedState, "The feed is empty. Press R to refresh.", height)
}

func (m Model) renderSearch(height int) string {
	styles := m.theme.Styles()
	st := m.snapshot.SearchState
	if st.Query == "" {
		return styles.MutedText.Render("Press / to search for short cooking videos.")
	}
	rows := make([]videoRow, 0, len(m.snapshot.Search))
	for _, v := range m.snapshot.Search {
		rows = append(rows, videoRow{title: v.Title, detail: v.ChannelTitle, id: v.VideoID})
	}
	title := styles.AccentText.Render("Results for ") + styles.Text.Bold(true).Render(st.Query)
	empty := "No short videos matched. Press R to keep looking."
	return title + "\n" + m.renderVideoList(rows, m.cursor[ViewSearch], st, empty, height-1)
}

// renderVideoList draws a scrolling list with reaction and try-list badges.
func (m Model) renderVideoList(rows []videoRow, cursor int, st prefetch.State, empty string, height int) string {
	styles := m.theme.Styles()
	if len(rows) == 0 {
		switch {
		case st.InFlight:
			return styles.WarningText.Render(m.spinner.View() + " Loading...")
		case st.LastErr != nil:
			return styles.DangerText.Render("Could not load: " + st.LastErr.Error())
		default:
			return styles.MutedText.Render(empty)
		}
	}

	listHeight := max(1, height-1)
	start := 0
	if cursor >= listHeight {
		start = cursor - listHeight + 1
	}
	end := min(len(rows), start+listHeight)

	titleWidth := max(20, m.width/2)
	if m.width >= LayoutWideWidth {
		titleWidth = m.width / 3
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		r := rows[i]
		line := padRight(truncate(r.title, titleWidth), titleWidth) + " " + m.badges(r.id)
		if m.width >= LayoutCompactWidth && r.detail != "" {
			line += "  " + styles.FaintText.Render(truncate(r.detail, max(0, m.width-titleWidth-24)))
		}
		if i == cursor {
			line = styles.Selected.Width(m.width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.queueStatus(st, len(rows)))
	return b.String()
}

// badges renders reaction and try-list markers for a video.
func (m Model) badges(videoID string) string {
	styles := m.theme.Styles()
	var out []string
	if r, ok := m.engine.Reaction(videoID); ok {
		out = append(out, styles.StatusStyle(strings.ToLower(string(r))).Render(string(r)))
	}
	if m.engine.OnTryList(videoID) {
		out = append(out, styles.StatusStyle("try").Render("TRY"))
	}
	return strings.Join(out, " ")
}

func (m Model) queueStatus(st prefetch.State, n int) string {
	styles := m.theme.Styles()
	parts := []string{fmt.Sprintf("%d loaded", n)}
	switch {
	case st.InFlight:
		parts = append(parts, m.spinner.View()+" fetching")
	case st.LastErr != nil:
		parts = append(parts, "last fetch failed")
	case st.Empty:
		parts = append(parts, "gave up, R to retry")
	case st.Exhausted:
		parts = append(parts, "end of results")
	}
	return styles.MutedText.Render(strings.Join(parts, " · "))
}

func (m Model) renderJobs(height int) string {
	styles := m.theme.Styles()
	var sections []string
	for _, kind := range []jobs.Kind{jobs.KindLinkImport, jobs.KindManualPrompt} {
		job, ok := m.snapshot.Job(kind)
		if !ok {
			job = jobs.Job{Kind: kind, Status: jobs.StatusIdle}
		}
		sections = append(sections, m.renderJob(job))
	}
	out := strings.Join(sections, "\n")
	if lipgloss.Height(out) > height {
		out = lipgloss.NewStyle().MaxHeight(height).Render(out)
	}
	if strings.TrimSpace(out) == "" {
		return styles.MutedText.Render("No recipe jobs.")
	}
	return out
}

var jobTitles = map[jobs.Kind]string{
	jobs.KindLinkImport:   "Import from link",
	jobs.KindManualPrompt: "Describe a recipe",
}

func (m Model) renderJob(job jobs.Job) string {
	styles := m.theme.Styles()
	width := max(30, m.width-4)

	status := string(job.Status)
	if job.Draft {
		status = "draft"
	}
	head := styles.Text.Bold(true).Render(jobTitles[job.Kind]) + "  " +
		styles.StatusStyle(status).Render(strings.ToUpper(status))

	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n")
	if job.Status == jobs.StatusIdle {
		b.WriteString(styles.MutedText.Render("Nothing running."))
		return styles.Panel.Width(width).Render(b.String())
	}

	pct := jobs.Progress(job.Steps, jobs.WeightsFor(job.Kind))
	bar := m.bar
	bar.Width = max(10, min(60, width-12))
	b.WriteString(bar.ViewAs(float64(pct) / 100))
	b.WriteString(fmt.Sprintf(" %3d%%\n", pct))

	for _, s := range job.Steps {
		marker := "·"
		switch s.Status {
		case jobs.StepCompleted:
			marker = styles.SuccessText.Render("✓")
		case jobs.StepProcessing:
			marker = styles.AccentText.Render(m.spinner.View())
		case jobs.StepFailed:
			marker = styles.DangerText.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, jobs.StepLabel(s.Key)))
	}
	if job.Error != "" {
		b.WriteString(styles.DangerText.Render(job.Error))
		b.WriteString("\n")
	}
	if job.Recipe != nil && job.Recipe.Title != "" {
		b.WriteString(styles.AccentText.Render("Recipe: ") + styles.Text.Render(job.Recipe.Title))
		b.WriteString("\n")
	}
	if job.Draft {
		b.WriteString(styles.WarningText.Render("e to revise, c to confirm"))
		b.WriteString("\n")
	}
	if !job.UpdatedAt.IsZero() {
		b.WriteString(styles.FaintText.Render("updated " + ago(job.UpdatedAt, time.Now())))
	}
	return styles.Panel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// libraryRow is a selectable line in the library view.
type libraryRow struct {
	target
	section string
	detail  string
}

// libraryRows lists scheduled meals first, then the try list.
func (m Model) libraryRows() []libraryRow {
	if m.engine == nil {
		return nil
	}
	titles := make(map[string]string, len(m.snapshot.Feed))
	urls := make(map[string]string, len(m.snapshot.Feed))
	for _, v := range m.snapshot.Feed {
		titles[v.VideoID] = v.MealName
		urls[v.VideoID] = v.VideoURL
	}

	var rows []libraryRow
	for _, meal := range m.engine.Meals() {
		title := meal.VideoID
		if meal.Video != nil && meal.Video.MealName != "" {
			title = meal.Video.MealName
		} else if t := titles[meal.VideoID]; t != "" {
			title = t
		}
		rows = append(rows, libraryRow{
			target:  target{videoID: meal.VideoID, mealID: meal.MealID, url: urls[meal.VideoID], title: title},
			section: "Scheduled",
			detail:  mealDetail(meal),
		})
	}
	for _, item := range m.engine.TryList() {
		title := titles[item.VideoID]
		if title == "" {
			title = item.VideoID
		}
		rows = append(rows, libraryRow{
			target:  target{videoID: item.VideoID, url: urls[item.VideoID], title: title},
			section: "Try list",
			detail:  item.Notes,
		})
	}
	return rows
}

func mealDetail(meal api.Meal) string {
	detail := fmt.Sprintf("%s %s (%s)", meal.MealDate, meal.MealTime, stores.MealPeriod(meal.MealTime))
	if meal.Rating != nil {
		detail += fmt.Sprintf("  %s", strings.Repeat("★", meal.Rating.Rating))
	}
	return detail
}

func (m Model) renderLibrary(height int) string {
	styles := m.theme.Styles()
	c := m.snapshot.Library
	summary := styles.MutedText.Render(fmt.Sprintf(
		"liked %d · disliked %d · try %d · rated %d · scheduled %d · tried %d",
		c.Liked, c.Disliked, c.TryList, c.Rated, c.Scheduled, c.Tried))

	rows := m.libraryRows()
	if len(rows) == 0 {
		return summary + "\n\n" + styles.MutedText.Render("Nothing saved yet. Press t on a video to add it to your try list.")
	}

	listHeight := max(1, height-2)
	cursor := m.cursor[ViewLibrary]
	start := 0
	if cursor >= listHeight {
		start = cursor - listHeight + 1
	}
	end := min(len(rows), start+listHeight)

	titleWidth := max(20, m.width/3)
	var b strings.Builder
	b.WriteString(summary)
	b.WriteString("\n")
	section := ""
	for i := start; i < end; i++ {
		r := rows[i]
		if r.section != section {
			section = r.section
			b.WriteString(styles.AccentText.Bold(true).Render(section))
			b.WriteString("\n")
		}
		line := "  " + padRight(truncate(r.title, titleWidth), titleWidth) + "  " + r.detail
		if i == cursor {
			line = styles.Selected.Width(m.width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
