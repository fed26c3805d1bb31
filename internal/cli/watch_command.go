package cli

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"fetchq/internal/config"
	"fetchq/internal/fetch"
	"fetchq/internal/model"
	"fetchq/internal/progress"
	"fetchq/internal/queue"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	watchErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	watchPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	watchActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
)

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "settings path")
	audio := fs.Bool("audio", false, "queue audio extraction for the given URLs")
	quality := fs.String("quality", "", "video quality for the given URLs: best, 1080p, or 720p")
	noTUI := fs.Bool("no-tui", false, "plain log output instead of the dashboard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := fetch.CheckDependencies(); err != nil {
		return fmt.Errorf("%w (run `fetchq doctor` for details)", err)
	}

	sched, cleanup, err := buildScheduler(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	if fs.NArg() > 0 {
		variant, err := variantFromFlags(*audio, *quality)
		if err != nil {
			return err
		}
		for _, url := range fs.Args() {
			sched.Submit(url, variant)
		}
	}

	if *noTUI || !stdoutIsTTY() {
		return drainQueue(sched, settings.Concurrency, false)
	}

	status := sched.Status()
	if status.Counts.Queued == 0 && status.Counts.Processing == 0 {
		fmt.Println("queue is empty; add sources with `fetchq add <url>`")
		sched.Close()
		return nil
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	m := watchModel{
		sched:   sched,
		events:  sched.Events(),
		spin:    spin,
		counts:  status.Counts,
		samples: make(map[string]model.ProgressSample),
	}
	finalModel, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("watch requires an interactive terminal (use --no-tui otherwise)")
		}
		return err
	}

	final := sched.Status()
	sched.Close()
	fmt.Printf("done: %d completed, %d failed, %d remaining\n",
		final.Counts.Completed, final.Counts.Failed, final.Counts.Queued+final.Counts.Processing)
	if fm, ok := finalModel.(watchModel); ok && fm.interrupted {
		fmt.Println("rerun `fetchq run` to resume the remaining jobs")
	}
	return nil
}

type watchModel struct {
	sched  *queue.Scheduler
	events <-chan queue.Event
	spin   spinner.Model

	counts  progress.Counts
	agg     progress.Aggregate
	active  map[string]model.Job
	samples map[string]model.ProgressSample
	log     []string

	width       int
	interrupted bool
}

type watchEventMsg queue.Event

type watchClosedMsg struct{}

func waitForEvent(events <-chan queue.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return watchEventMsg(ev)
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForEvent(m.events))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.interrupted = true
			m.sched.CancelAll()
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case watchClosedMsg:
		return m, tea.Quit
	case watchEventMsg:
		m = m.applyEvent(queue.Event(msg))
		if m.counts.Queued == 0 && m.counts.Processing == 0 {
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	}
	return m, nil
}

func (m watchModel) applyEvent(ev queue.Event) watchModel {
	if m.active == nil {
		m.active = make(map[string]model.Job)
	}
	switch ev.Kind {
	case queue.EventQueueChanged:
		m.counts = ev.Counts
	case queue.EventJobStarted:
		m.active[ev.Job.ID] = ev.Job
		m = m.pushLog(fmt.Sprintf("start  %s (attempt %d/%d)", ev.Job.DisplayTitle(), ev.Job.Attempts+1, ev.Job.MaxAttempts))
	case queue.EventJobRetried:
		delete(m.active, ev.Job.ID)
		delete(m.samples, ev.Job.ID)
		m = m.pushLog(fmt.Sprintf("retry  %s: %s", ev.Job.DisplayTitle(), ev.Err))
	case queue.EventJobCompleted:
		delete(m.active, ev.Job.ID)
		delete(m.samples, ev.Job.ID)
		m = m.pushLog(watchOKStyle.Render("done   ") + fmt.Sprintf("%s (%s)", ev.Job.DisplayTitle(), formatBytesIEC(ev.Job.SizeBytes)))
	case queue.EventJobFailed:
		delete(m.active, ev.Job.ID)
		delete(m.samples, ev.Job.ID)
		m = m.pushLog(watchErrorStyle.Render("failed ") + fmt.Sprintf("%s: %s", ev.Job.DisplayTitle(), ev.Err))
	case queue.EventProgress:
		m.active[ev.Job.ID] = ev.Job
		m.samples[ev.Job.ID] = ev.Sample
	case queue.EventAggregate:
		m.agg = ev.Aggregate
	}
	return m
}

func (m watchModel) pushLog(line string) watchModel {
	m.log = append([]string{line}, m.log...)
	if len(m.log) > 6 {
		m.log = m.log[:6]
	}
	return m
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(watchTitleStyle.Render("fetchq") + "  " + m.spin.View() + "downloading\n")
	b.WriteString(fmt.Sprintf("queued %d | active %d | completed %d | failed %d\n\n",
		m.counts.Queued, m.counts.Processing, m.counts.Completed, m.counts.Failed))

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		job := m.active[id]
		sample := m.samples[id]
		b.WriteString(watchActiveStyle.Render(fmt.Sprintf("  %s %s  %s at %s",
			renderBar(sample.Percent), job.DisplayTitle(), fmtPercent(sample.Percent), orDash(sample.Rate))) + "\n")
	}
	b.WriteString("\n" + watchMutedStyle.Render(summarizeAggregate(m.agg)) + "\n")

	if len(m.log) > 0 {
		b.WriteString("\n" + watchPanelStyle.Render(strings.Join(m.log, "\n")) + "\n")
	}
	b.WriteString("\n" + watchMutedStyle.Render("press q to stop and persist the queue") + "\n")
	return b.String()
}

func renderBar(percent float64) string {
	const width = 20
	filled := int(percent / 100 * width)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func fmtPercent(p float64) string {
	return fmt.Sprintf("%5.1f%%", p)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
