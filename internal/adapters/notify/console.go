package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const questionWidth = 48

// Console imprime los resultados del toolkit como tablas legibles.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole crea un printer que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter crea un printer sobre w (tests).
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

// Render imprime cualquier resultado de una operación del toolkit.
func (c *Console) Render(v any) error {
	switch r := v.(type) {
	case []domain.Market:
		c.PrintMarkets(r)
	case domain.Market:
		c.PrintMarket(r)
	case []domain.Position:
		c.PrintPositions(r)
	case []domain.Holder:
		c.PrintHolders(r)
	case []domain.Snapshot:
		c.PrintSnapshots(r)
	default:
		return fmt.Errorf("notify.Render: unsupported result type %T", v)
	}
	return nil
}

// PrintMarkets imprime una tabla de mercados en el orden recibido.
func (c *Console) PrintMarkets(markets []domain.Market) {
	if len(markets) == 0 {
		fmt.Fprintf(c.out, "[%s] no markets found\n", c.now().Format("15:04:05"))
		return
	}

	now := c.now()
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "ID", "Market", "Vol 24h", "Liquidity", "Yes", "Ends in")

	for i, m := range markets {
		table.Append(
			fmt.Sprintf("%d", i+1),
			m.ID,
			domain.TruncateQuestion(m.Question, m.ID, questionWidth),
			usd(m.Volume24h),
			usd(m.Liquidity),
			yesLabel(m),
			endsInLabel(m, now),
		)
	}

	table.Render()
	fmt.Fprintf(c.out, "  %d markets\n", len(markets))
}

// PrintMarket imprime el detalle de un mercado.
func (c *Console) PrintMarket(m domain.Market) {
	now := c.now()

	fmt.Fprintf(c.out, "\n%s\n", m.Question)
	fmt.Fprintf(c.out, "  id:         %s\n", m.ID)
	if m.Slug != "" {
		fmt.Fprintf(c.out, "  url:        https://polymarket.com/event/%s\n", m.Slug)
	}
	if len(m.Tags) > 0 {
		fmt.Fprintf(c.out, "  tags:       %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintf(c.out, "  volume 24h: %s\n", usd(m.Volume24h))
	fmt.Fprintf(c.out, "  liquidity:  %s\n", usd(m.Liquidity))
	if !m.EndDate.IsZero() {
		fmt.Fprintf(c.out, "  ends:       %s (%s)\n", m.EndDate.Format(time.RFC3339), endsInLabel(m, now))
	}

	if len(m.Outcomes) == 0 {
		fmt.Fprintln(c.out)
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Outcome", "Probability")
	for _, o := range m.Outcomes {
		table.Append(o.Label, fmt.Sprintf("%.1f%%", o.Probability*100))
	}
	table.Render()
}

// PrintPositions imprime las posiciones de un usuario y el valor total.
func (c *Console) PrintPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintf(c.out, "[%s] no positions found\n", c.now().Format("15:04:05"))
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Outcome", "Size", "Entry", "Current", "Value", "PnL", "PnL %")

	for i, p := range positions {
		table.Append(
			fmt.Sprintf("%d", i+1),
			domain.TruncateQuestion(p.MarketTitle, p.MarketID, questionWidth),
			p.Outcome,
			fmt.Sprintf("%.2f", p.Size),
			fmt.Sprintf("%.3f", p.EntryPrice),
			fmt.Sprintf("%.3f", p.CurrentPrice),
			usd(p.CurrentValue),
			signedUSD(p.CashPnL),
			fmt.Sprintf("%+.1f%%", p.PercentPnL),
		)
	}

	table.Render()
	fmt.Fprintf(c.out, "  %d positions, total value %s\n", len(positions), usd(domain.TotalValue(positions)))
}

// PrintHolders imprime los holders agrupados por outcome.
func (c *Console) PrintHolders(holders []domain.Holder) {
	if len(holders) == 0 {
		fmt.Fprintf(c.out, "[%s] no holders found\n", c.now().Format("15:04:05"))
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Outcome", "Rank", "Holder", "Quantity")

	for _, h := range holders {
		name := h.Name
		if name == "" {
			name = shortAddress(h.UserID)
		}
		table.Append(
			h.Outcome,
			fmt.Sprintf("%d", h.Rank),
			name,
			fmt.Sprintf("%.2f", h.Quantity),
		)
	}

	table.Render()
}

// PrintSnapshots imprime el histórico de fetches guardados.
func (c *Console) PrintSnapshots(snaps []domain.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(c.out, "no snapshots recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Fetched", "Operation", "Key", "Items", "Bytes")

	for _, s := range snaps {
		table.Append(
			s.FetchedAt.Local().Format("2006-01-02 15:04:05"),
			s.Operation,
			domain.TruncateQuestion(s.CacheKey, "", questionWidth),
			fmt.Sprintf("%d", s.Items),
			fmt.Sprintf("%d", len(s.Payload)),
		)
	}

	table.Render()
}

// --- helpers de formato ---

func usd(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func signedUSD(v float64) string {
	if v < 0 {
		return "-" + usd(-v)
	}
	return "+" + usd(v)
}

func yesLabel(m domain.Market) string {
	if p, ok := m.Probability("Yes"); ok {
		return fmt.Sprintf("%.0f%%", p*100)
	}
	if len(m.Outcomes) > 0 {
		o := m.Outcomes[0]
		return fmt.Sprintf("%s %.0f%%", o.Label, o.Probability*100)
	}
	return "-"
}

func endsInLabel(m domain.Market, now time.Time) string {
	if m.EndDate.IsZero() {
		return "-"
	}
	h := m.HoursToResolution(now)
	if h >= 48 {
		return fmt.Sprintf("%.0fd", h/24)
	}
	return fmt.Sprintf("%.0fh", h)
}

func shortAddress(addr string) string {
	if len(addr) > 14 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
