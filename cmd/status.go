// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/pkg/brain"
)

var statusInterval int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Live dashboard for the motion link",
	Long: `Interactive terminal dashboard for the motion link.

Polls braind for link status and displays controller state, watchdog state,
packet counters and fault flags. Commands can be issued directly:

  e - emergency stop        c - clear emergency stop
  h - hold                  r - resume
  : - command line (same syntax as the serial console)
  q - quit`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusInterval, "interval", 500, "Poll interval in milliseconds")
}

// linkStatus merges the k/v payloads both daemons can answer with. Fields
// missing from a payload stay zero and render as dashes.
type linkStatus struct {
	// Motor-core diagnostics (combined bench process)
	ControllerState string   `json:"controller_state"`
	WatchdogState   string   `json:"watchdog_state"`
	MsSinceFeed     int64    `json:"ms_since_feed"`
	PacketsAccepted uint64   `json:"packets_accepted"`
	DropsBadCrc     uint64   `json:"drops_bad_crc"`
	DropsStaleSeq   uint64   `json:"drops_stale_seq"`
	RingPending     uint32   `json:"ring_pending"`
	RingOverflow    bool     `json:"ring_overflow"`
	Ticks           uint64   `json:"ticks"`
	ClampedTicks    uint64   `json:"clamped_ticks"`
	Faults          []string `json:"faults"`
	Pose            []uint16 `json:"pose"`

	// Supervisory-core statistics (standalone braind)
	Seq         uint32 `json:"seq"`
	PacketsSent uint64 `json:"packets_sent"`
	RingDrops   uint64 `json:"ring_drops"`
	RingFlags   uint32 `json:"ring_flags"`
}

type statusTickMsg time.Time
type statusResultMsg struct {
	status *linkStatus
	err    error
}
type commandResultMsg struct {
	info string
	err  error
}

type statusModel struct {
	client   *brain.Client
	interval time.Duration

	status     *linkStatus
	lastUpdate time.Time
	lastErr    error
	lastEvent  string

	input    textinput.Model
	entering bool

	width    int
	height   int
	quitting bool
}

func initialStatusModel(client *brain.Client, interval time.Duration) statusModel {
	ti := textinput.New()
	ti.Placeholder = "pose 1500 ... | hold | resume | estop | clear"
	ti.CharLimit = 128
	return statusModel{
		client:   client,
		interval: interval,
		input:    ti,
	}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus, m.tick())
}

func (m statusModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m statusModel) fetchStatus() tea.Msg {
	resp, err := m.client.Do(&brain.Command{Type: brain.CmdStatus})
	if err != nil {
		return statusResultMsg{err: err}
	}
	var st linkStatus
	if err := json.Unmarshal(resp.Status, &st); err != nil {
		return statusResultMsg{err: err}
	}
	return statusResultMsg{status: &st}
}

// sendCommand issues one operator command and reports the outcome.
func (m statusModel) sendCommand(cmd *brain.Command) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.client.Do(cmd); err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{info: fmt.Sprintf("%s acknowledged", cmd.Type)}
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusTickMsg:
		return m, tea.Batch(m.fetchStatus, m.tick())

	case statusResultMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.status = msg.status
			m.lastErr = nil
			m.lastUpdate = time.Now()
		}
		return m, nil

	case commandResultMsg:
		if msg.err != nil {
			m.lastEvent = "error: " + msg.err.Error()
		} else {
			m.lastEvent = msg.info
		}
		return m, nil

	case tea.KeyMsg:
		if m.entering {
			switch msg.String() {
			case "enter":
				line := m.input.Value()
				m.input.Reset()
				m.input.Blur()
				m.entering = false
				cmd, err := brain.ParseLine(line)
				if err != nil {
					m.lastEvent = "error: " + err.Error()
					return m, nil
				}
				return m, m.sendCommand(cmd)
			case "esc":
				m.input.Reset()
				m.input.Blur()
				m.entering = false
				return m, nil
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "e":
			return m, m.sendCommand(&brain.Command{Type: brain.CmdEstop})
		case "c":
			return m, m.sendCommand(&brain.Command{Type: brain.CmdClear})
		case "h":
			return m, m.sendCommand(&brain.Command{Type: brain.CmdHold})
		case "r":
			return m, m.sendCommand(&brain.Command{Type: brain.CmdResume})
		case ":":
			m.entering = true
			return m, m.input.Focus()
		}
	}

	return m, nil
}

func (m statusModel) View() string {
	if m.quitting {
		return "disconnected\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Width(18)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	alertStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Spiderlink - Motion Link Status"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	if m.status == nil {
		b.WriteString("waiting for first status...\n")
	} else {
		st := m.status

		var link strings.Builder
		state := st.ControllerState
		if state == "" {
			state = "-"
		}
		if state == "ESTOP" || st.WatchdogState == "ESTOP" {
			link.WriteString(labelStyle.Render("Controller"))
			link.WriteString(alertStyle.Render(state))
		} else {
			link.WriteString(labelStyle.Render("Controller"))
			link.WriteString(valueStyle.Render(state))
		}
		link.WriteString("\n")

		wd := st.WatchdogState
		if wd == "" {
			wd = "-"
		}
		link.WriteString(labelStyle.Render("Watchdog"))
		if wd == "NORMAL" || wd == "-" {
			link.WriteString(valueStyle.Render(wd))
		} else {
			link.WriteString(alertStyle.Render(wd))
		}
		link.WriteString("\n")
		link.WriteString(labelStyle.Render("Since feed"))
		link.WriteString(valueStyle.Render(fmt.Sprintf("%d ms", st.MsSinceFeed)))
		b.WriteString(boxStyle.Render(link.String()))
		b.WriteString("\n\n")

		row("Seq", fmt.Sprintf("%d", st.Seq))
		row("Sent", fmt.Sprintf("%d", st.PacketsSent))
		row("Accepted", fmt.Sprintf("%d", st.PacketsAccepted))
		row("CRC drops", fmt.Sprintf("%d", st.DropsBadCrc))
		row("Stale drops", fmt.Sprintf("%d", st.DropsStaleSeq))
		row("Ring pending", fmt.Sprintf("%d", st.RingPending))
		row("Ring drops", fmt.Sprintf("%d", st.RingDrops))
		row("Ticks", fmt.Sprintf("%d (%d clamped)", st.Ticks, st.ClampedTicks))

		if st.RingOverflow {
			b.WriteString(alertStyle.Render("RING OVERFLOW"))
			b.WriteString("\n")
		}
		if len(st.Faults) > 0 {
			b.WriteString(labelStyle.Render("Faults"))
			b.WriteString(alertStyle.Render(strings.Join(st.Faults, " ")))
			b.WriteString("\n")
		}
		if len(st.Pose) > 0 {
			var pose strings.Builder
			for i, us := range st.Pose {
				if i > 0 {
					pose.WriteString(" ")
				}
				pose.WriteString(fmt.Sprintf("%d", us))
			}
			row("Pose", pose.String())
		}
	}

	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(alertStyle.Render("status error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	if m.lastEvent != "" {
		b.WriteString(valueStyle.Render(m.lastEvent))
		b.WriteString("\n")
	}

	if m.entering {
		b.WriteString("\n" + m.input.View() + "\n")
	} else {
		helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		b.WriteString("\n" + helpStyle.Render("e estop  c clear  h hold  r resume  : command  q quit") + "\n")
	}

	return b.String()
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := dialBrain()
	if err != nil {
		return err
	}
	defer client.Close()

	m := initialStatusModel(client, time.Duration(statusInterval)*time.Millisecond)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
