package ui

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/w3send/internal/ens"
	"github.com/Mohsinsiddi/w3send/internal/send"
	"github.com/Mohsinsiddi/w3send/internal/token"
)

// Percent shortcuts on the amount field: alt+1 through alt+4.
var percentShortcuts = []struct {
	key string
	pct float64
}{
	{"alt+1", 0.05},
	{"alt+2", 0.25},
	{"alt+3", 0.50},
	{"alt+4", 1.00},
}

// estimateInterval re-quotes gas while the form sits open, so a stale fee
// never lingers across base-fee changes.
const estimateInterval = 10 * time.Second

// External data messages, delivered via Program.Send by the pollers.
type (
	// BalanceMsg carries a fresh token balance in smallest units.
	BalanceMsg struct {
		Balance *big.Int
		Err     error
	}

	// PriceMsg carries a fresh native-currency exchange rate.
	PriceMsg struct {
		Rate float64
		OK   bool
	}

	// MachineMsg signals that the transfer lifecycle advanced; the model
	// re-reads the machine snapshot on receipt.
	MachineMsg struct{}
)

type estimateResultMsg struct {
	est *send.Estimate
	err error
	// to and amount are the inputs the estimate was computed for, so it
	// can be matched against the transfer awaiting confirmation.
	to     string
	amount *big.Int
}

type resolveResultMsg struct {
	name string
	addr string
	err  error
}

type estimateTickMsg struct{}

// SendModel is the Bubble Tea model for the transfer form: two inputs, a
// live fee quote, and the confirm/progress dialog driven by the machine.
type SendModel struct {
	machine   *send.Machine
	estimator send.Estimator

	symbol   string
	decimals int

	inputs []textinput.Model
	focus  int

	balance  *big.Int
	balErr   error
	rate     float64
	haveRate bool

	est       *send.Estimate
	estErr    error
	fieldErrs send.FieldErrors

	explorerURL func(hash string) string
	resolver    func(ctx context.Context, name string) (string, error)
	resolving   bool

	spin     spinner.Model
	Quitting bool
}

// NewSendModel builds the form. explorerURL may be nil when no block
// explorer is configured.
func NewSendModel(machine *send.Machine, estimator send.Estimator, symbol string, decimals int, explorerURL func(string) string) SendModel {
	to := textinput.New()
	to.Placeholder = "0x… or name.eth"
	to.CharLimit = 64
	to.Width = 46
	to.Prompt = ""
	to.Focus()

	amount := textinput.New()
	amount.Placeholder = "0.0"
	amount.CharLimit = 32
	amount.Width = 46
	amount.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleChain

	return SendModel{
		machine:     machine,
		estimator:   estimator,
		symbol:      symbol,
		decimals:    decimals,
		inputs:      []textinput.Model{to, amount},
		spin:        sp,
		explorerURL: explorerURL,
	}
}

// WithResolver enables ENS names in the recipient field. Resolution runs
// when the form is submitted; the resolved address replaces the name.
func (m SendModel) WithResolver(fn func(ctx context.Context, name string) (string, error)) SendModel {
	m.resolver = fn
	return m
}

func (m SendModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, estimateTick())
}

func estimateTick() tea.Cmd {
	return tea.Tick(estimateInterval, func(time.Time) tea.Msg {
		return estimateTickMsg{}
	})
}

// requestEstimate re-quotes gas for the current inputs in the background.
// An unparseable amount simply means no quote yet.
func (m SendModel) requestEstimate() tea.Cmd {
	to := strings.TrimSpace(m.inputs[0].Value())
	var amount *big.Int
	if raw := strings.TrimSpace(m.inputs[1].Value()); raw != "" {
		if n, err := token.ParseAmount(raw, m.decimals); err == nil {
			amount = n
		}
	}
	est := m.estimator
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		e, err := est.Estimate(ctx, to, amount)
		return estimateResultMsg{est: e, err: err, to: to, amount: amount}
	}
}

func (m SendModel) validator() send.Validator {
	return send.Validator{Balance: m.balance, Decimals: m.decimals}
}

func (m SendModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case BalanceMsg:
		if msg.Err != nil {
			m.balErr = msg.Err
			return m, nil
		}
		m.balance, m.balErr = msg.Balance, nil
		return m, nil

	case PriceMsg:
		m.rate, m.haveRate = msg.Rate, msg.OK
		return m, nil

	case estimateResultMsg:
		m.est, m.estErr = msg.est, msg.err
		// A quote arriving while the dialog is open belongs to the machine
		// too; without it a confirmation begun before the first estimate
		// landed would submit with none.
		m.machine.UpdateEstimate(msg.to, msg.amount, msg.est)
		return m, nil

	case resolveResultMsg:
		m.resolving = false
		if msg.err != nil {
			m.fieldErrs = send.FieldErrors{"to": msg.err}
			return m, nil
		}
		// Swap the name for its address and open the confirmation with a
		// fresh estimate request in flight.
		m.inputs[0].SetValue(msg.addr)
		m.fieldErrs = m.machine.Begin(m.validator(), msg.addr, m.inputs[1].Value(), m.est)
		return m, m.requestEstimate()

	case estimateTickMsg:
		return m, tea.Batch(estimateTick(), m.requestEstimate())

	case MachineMsg:
		// Success clears the form for the next transfer.
		if m.machine.State() == send.StateIdle && m.inputs[0].Value() != "" {
			snap := m.machine.Snapshot()
			if snap.Request.To == "" {
				m.resetForm()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *SendModel) resetForm() {
	m.inputs[0].SetValue("")
	m.inputs[1].SetValue("")
	m.fieldErrs = nil
	m.est = nil
	m.focus = 0
	m.inputs[0].Focus()
	m.inputs[1].Blur()
}

func (m SendModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.machine.State()

	switch msg.String() {
	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit

	case "esc":
		switch state {
		case send.StateConfirming, send.StateFailed:
			m.machine.Dismiss()
			return m, nil
		case send.StateIdle:
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil

	case "tab", "shift+tab", "up", "down":
		if state != send.StateIdle {
			return m, nil
		}
		if msg.String() == "tab" || msg.String() == "down" {
			m.focus = (m.focus + 1) % len(m.inputs)
		} else {
			m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
		}
		for i := range m.inputs {
			if i == m.focus {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil

	case "enter":
		switch state {
		case send.StateIdle:
			if m.resolving {
				return m, nil
			}
			to := strings.TrimSpace(m.inputs[0].Value())
			if m.resolver != nil && ens.IsName(to) {
				m.resolving = true
				resolve := m.resolver
				return m, func() tea.Msg {
					ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
					defer cancel()
					addr, err := resolve(ctx, to)
					return resolveResultMsg{name: to, addr: addr, err: err}
				}
			}
			errs := m.machine.Begin(m.validator(), m.inputs[0].Value(), m.inputs[1].Value(), m.est)
			m.fieldErrs = errs
			return m, nil
		case send.StateConfirming, send.StateFailed:
			m.machine.Confirm(context.Background()) //nolint:errcheck
			return m, nil
		}
		return m, nil
	}

	if state != send.StateIdle {
		return m, nil
	}

	// Percent shortcuts fill the amount from the live balance.
	for _, sc := range percentShortcuts {
		if msg.String() == sc.key && m.balance != nil {
			m.inputs[1].SetValue(token.PercentOf(m.balance, m.decimals, sc.pct))
			m.fieldErrs = nil
			return m, m.requestEstimate()
		}
	}

	// Plain typing goes to the focused input; any edit invalidates the
	// shown field errors and re-quotes gas.
	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.fieldErrs = nil
		return m, tea.Batch(cmd, m.requestEstimate())
	}
	return m, cmd
}

func (m SendModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(fmt.Sprintf("Send %s", m.symbol)) + "\n")

	sb.WriteString(m.balanceLine() + "\n\n")
	sb.WriteString(m.formView())

	snap := m.machine.Snapshot()
	switch snap.State {
	case send.StateConfirming, send.StateFailed:
		sb.WriteString("\n" + m.confirmView(snap))
	case send.StateAwaitingSignature:
		sb.WriteString("\n" + m.spin.View() + StyleInfo.Render(" Waiting for signature…") + "\n")
	case send.StateAwaitingReceipt:
		sb.WriteString("\n" + m.spin.View() + StyleInfo.Render(" Waiting for confirmation…") + "\n")
		sb.WriteString(StyleAddress.Render("  "+TruncateAddr(snap.Hash)) + "\n")
	case send.StateConfirmed:
		sb.WriteString("\n" + Success("Transfer confirmed") + "\n")
		if m.explorerURL != nil && snap.Hash != "" {
			sb.WriteString(StyleMeta.Render("  "+m.explorerURL(snap.Hash)) + "\n")
		}
	}

	sb.WriteString("\n" + m.controlsView(snap) + "\n")
	return sb.String()
}

func (m SendModel) balanceLine() string {
	if m.balErr != nil {
		return Err("balance unavailable: " + trimErr(m.balErr.Error()))
	}
	if m.balance == nil {
		return Meta("Balance: loading…")
	}
	return Meta("Balance: ") + Val(token.FormatAmount(m.balance, m.decimals)+" "+m.symbol)
}

func (m SendModel) formView() string {
	var sb strings.Builder

	sb.WriteString(StyleMeta.Render("Recipient") + "\n")
	sb.WriteString("  " + m.inputs[0].View() + "\n")
	if err, ok := m.fieldErrs["to"]; ok {
		sb.WriteString("  " + StyleError.Render(err.Error()) + "\n")
	}

	sb.WriteString(StyleMeta.Render("Amount ("+m.symbol+")") + "\n")
	sb.WriteString("  " + m.inputs[1].View() + "\n")
	if err, ok := m.fieldErrs["amount"]; ok {
		sb.WriteString("  " + StyleError.Render(err.Error()) + "\n")
	}

	sb.WriteString("\n" + m.feeLine() + "\n")
	return sb.String()
}

// feeLine renders the live fee quote, or a calculating note while any of
// the gas estimate and exchange rate are still missing.
func (m SendModel) feeLine() string {
	if m.estErr != nil {
		return Meta("Est. fee: ") + StyleWarning.Render("unavailable")
	}
	usd, ok := send.QuoteUSD(m.est, m.rate, m.haveRate)
	if !ok {
		return Meta("Est. fee: calculating…")
	}
	return Meta("Est. fee: ") + Val(fmt.Sprintf("$%.2f", usd))
}

func (m SendModel) confirmView(snap send.Snapshot) string {
	pairs := [][2]string{
		{"To", TruncateAddr(snap.Request.To)},
		{"Amount", snap.Request.AmountText + " " + m.symbol},
	}
	if usd, ok := send.QuoteUSD(snap.Estimate, m.rate, m.haveRate); ok {
		pairs = append(pairs, [2]string{"Est. fee", fmt.Sprintf("$%.2f", usd)})
	} else {
		pairs = append(pairs, [2]string{"Est. fee", "calculating…"})
	}
	if snap.Hash != "" {
		// A failed-but-broadcast transfer keeps its hash visible so the user
		// can track it on the explorer.
		pairs = append(pairs, [2]string{"Hash", TruncateAddr(snap.Hash)})
	}

	out := KeyValueBlock("Confirm Transfer", pairs)
	if snap.State == send.StateFailed && snap.Notice != nil {
		out += "\n" + Err(trimErr(snap.Notice.Error()))
	}
	return out + "\n"
}

func (m SendModel) controlsView(snap send.Snapshot) string {
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	switch state := snap.State; state {
	case send.StateConfirming, send.StateFailed:
		if state == send.StateFailed && !snap.Retryable {
			sb.WriteString(StyleMeta.Render("[ esc ]"))
			sb.WriteString(StyleMeta.Render(" dismiss"))
			break
		}
		sb.WriteString(StyleSuccess.Render("[ enter ]"))
		sb.WriteString(StyleMeta.Render(" confirm"))
		sb.WriteString(sep)
		sb.WriteString(StyleMeta.Render("[ esc ]"))
		sb.WriteString(StyleMeta.Render(" cancel"))
	case send.StateAwaitingSignature, send.StateAwaitingReceipt:
		sb.WriteString(StyleMeta.Render("transfer in flight…"))
	default:
		sb.WriteString(StyleMeta.Render("[ tab ]"))
		sb.WriteString(StyleMeta.Render(" switch field"))
		sb.WriteString(sep)
		sb.WriteString(StyleInfo.Render("[ enter ]"))
		sb.WriteString(StyleMeta.Render(" review"))
		sb.WriteString(sep)
		sb.WriteString(StyleMeta.Render("[ alt+1..4 ]"))
		sb.WriteString(StyleMeta.Render(" 5/25/50/100%"))
		sb.WriteString(sep)
		sb.WriteString(StyleMeta.Render("[ esc ]"))
		sb.WriteString(StyleMeta.Render(" quit"))
	}
	return sb.String()
}

// trimErr keeps dialog error notices to a single readable line.
func trimErr(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		return s[:77] + "…"
	}
	return s
}
