package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/batcher/batcher/internal/events"
)

// containerStatus is the latest one-line status shown for a container.
type containerStatus struct {
	line   string
	failed bool
}

// Model is the bubbletea model for the interactive progress display.
type Model struct {
	taskName   string
	statuses   map[string]containerStatus
	order      []string
	lastStep   string
	failed     bool
	failedName string
	instr      string
	done       bool
}

// NewModel creates an empty progress model.
func NewModel() Model {
	return Model{statuses: make(map[string]containerStatus)}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TaskStartingMsg:
		m.taskName = msg.Name

	case StepStartingMsg:
		m.lastStep = msg.Description

	case EventPostedMsg:
		m.applyEvent(msg.Event)

	case TaskFailedMsg:
		m.failed = true
		m.failedName = msg.Name
		m.instr = msg.Instructions

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) applyEvent(e events.Event) {
	if e.Container == "" {
		return
	}
	if _, ok := m.statuses[e.Container]; !ok {
		m.order = append(m.order, e.Container)
		sort.Strings(m.order)
	}
	m.statuses[e.Container] = containerStatus{line: describeEvent(e), failed: e.IsFailure()}
}

func describeEvent(e events.Event) string {
	switch e.Kind {
	case events.ImageBuildProgress:
		return "building: " + e.Progress
	case events.ImageBuilt, events.ImagePulled:
		return "image ready"
	case events.ImageBuildFailed, events.ImagePullFailed:
		return "image failed: " + e.Message
	case events.ContainerCreated:
		return "created"
	case events.ContainerCreationFailed:
		return "create failed: " + e.Message
	case events.ContainerStarted:
		return "started"
	case events.ContainerStartFailed:
		return "start failed: " + e.Message
	case events.ContainerBecameHealthy:
		return "healthy"
	case events.ContainerNotHealthy:
		return "unhealthy: " + e.Message
	case events.RunningContainerExited:
		code := 0
		if e.ExitCode != nil {
			code = *e.ExitCode
		}
		return fmt.Sprintf("exited (%d)", code)
	case events.ContainerStopped:
		return "stopped"
	case events.ContainerStopFailed:
		return "stop failed: " + e.Message
	case events.ContainerRemoved:
		return "removed"
	case events.ContainerRemovalFailed:
		return "remove failed: " + e.Message
	default:
		return string(e.Kind)
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("batcher: %s", m.taskName)))
	b.WriteString("\n\n")

	for _, name := range m.order {
		st := m.statuses[name]
		style := normalStyle
		if st.failed {
			style = failStyle
		}
		fmt.Fprintf(&b, "%s %s\n", style.Render(name), st.line)
	}

	if m.lastStep != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.lastStep))
		b.WriteString("\n")
	}

	if m.failed {
		b.WriteString("\n")
		b.WriteString(failStyle.Render(fmt.Sprintf("task %s failed", m.failedName)))
		b.WriteString("\n")
		if m.instr != "" {
			b.WriteString(m.instr)
		}
	}

	return b.String()
}
