package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthNode is a month entry together with the sub-period entries that
// reference it. Amounts are valued at the current price.
type MonthNode struct {
	Entry
	Subs       []SubNode       `json:"subs"`
	Total      int             `json:"total"`
	SubTotal   int             `json:"sub_total"`
	Gross      decimal.Decimal `json:"gross"`
	GrossLabel string          `json:"gross_label"`
	People     []PersonAmount  `json:"people"`
}

// SubNode is a sub-period row inside a month.
type SubNode struct {
	Entry
	Total      int             `json:"total"`
	Gross      decimal.Decimal `json:"gross"`
	GrossLabel string          `json:"gross_label"`
	People     []PersonAmount  `json:"people"`
}

// PersonAmount is one roster member's count inside a single entry. Only
// members with a non-zero count are listed, in roster order.
type PersonAmount struct {
	PersonID   string          `json:"id"`
	Lecturas   int             `json:"lecturas"`
	Gross      decimal.Decimal `json:"gross"`
	GrossLabel string          `json:"gross_label"`
	// Share is the member's percentage of the entry total, rounded.
	Share int `json:"share"`
}

// Reconciled reports whether the sub-periods add up to the month total.
// Months without sub-periods are always reconciled.
func (m MonthNode) Reconciled() bool {
	return len(m.Subs) == 0 || m.SubTotal == m.Total
}

// PersonTotal is a roster member's year-to-date count and its value.
type PersonTotal struct {
	Person
	Total      int             `json:"total"`
	Bruto      decimal.Decimal `json:"bruto"`
	BrutoLabel string          `json:"bruto_label"`
}

// HistoricalYear groups the imported rows of one year.
type HistoricalYear struct {
	Year       int                `json:"year"`
	Price      decimal.Decimal    `json:"price"`
	Total      int                `json:"total"`
	Gross      decimal.Decimal    `json:"gross"`
	GrossLabel string             `json:"gross_label"`
	Rows       []HistoricalRecord `json:"rows"`
}

// Dashboard is every derived figure the presentation layer renders.
type Dashboard struct {
	Price        decimal.Decimal  `json:"price"`
	PriceLabel   string           `json:"price_label"`
	Pendientes   int              `json:"pendientes"`
	PendingLevel PendingLevel     `json:"pending_level"`
	LastModified *string          `json:"last_modified"`
	GlobalMax    int              `json:"global_max"`
	ChartMax     int              `json:"chart_max"`
	Months       []MonthNode      `json:"months"`
	Totals       []PersonTotal    `json:"totals"`
	GrandTotal   int              `json:"grand_total"`
	GrandGross   decimal.Decimal  `json:"grand_gross"`
	GrossLabel   string           `json:"grand_gross_label"`
	Historical   []HistoricalYear `json:"historical"`
	Roster       []Person         `json:"roster"`
}

// Aggregator derives read-only views from raw records. It never mutates its
// inputs.
type Aggregator struct {
	Roster []Person
	Prices PriceTable
}

func NewAggregator(roster []Person, prices PriceTable) Aggregator {
	return Aggregator{Roster: append([]Person(nil), roster...), Prices: prices}
}

// EntryTotal sums the entry's counts over the roster. Keys outside the
// roster are ignored.
func (a Aggregator) EntryTotal(e Entry) int {
	total := 0
	for _, p := range a.Roster {
		total += e.Lecturas.Get(p.ID)
	}
	return total
}

// GroupMonths builds one node per distinct month label in first-seen order
// and attaches matching sub-periods sorted by timestamp. A repeated month
// entry replaces the node content but keeps the original position.
// Sub-periods whose month has no node are dropped.
func (a Aggregator) GroupMonths(entries []Entry) []MonthNode {
	index := make(map[string]int)
	nodes := make([]MonthNode, 0)
	for _, e := range entries {
		if !e.IsMonth() {
			continue
		}
		if i, ok := index[e.Mes]; ok {
			nodes[i].Entry = e.Clone()
			continue
		}
		index[e.Mes] = len(nodes)
		nodes = append(nodes, MonthNode{Entry: e.Clone(), Subs: []SubNode{}})
	}
	for _, e := range entries {
		if !e.IsSub() {
			continue
		}
		if i, ok := index[e.Mes]; ok {
			nodes[i].Subs = append(nodes[i].Subs, a.subNode(e))
		}
	}
	for i := range nodes {
		n := &nodes[i]
		// Empty timestamps sort first.
		sort.SliceStable(n.Subs, func(x, y int) bool { return n.Subs[x].TS < n.Subs[y].TS })
		n.Total = a.EntryTotal(n.Entry)
		n.Gross = Gross(n.Total, a.Prices.Current)
		n.GrossLabel = FormatEuros(n.Gross)
		n.People = a.personAmounts(n.Entry, n.Total)
		n.SubTotal = 0
		for _, sub := range n.Subs {
			n.SubTotal += sub.Total
		}
	}
	return nodes
}

func (a Aggregator) subNode(e Entry) SubNode {
	total := a.EntryTotal(e)
	gross := Gross(total, a.Prices.Current)
	return SubNode{
		Entry:      e.Clone(),
		Total:      total,
		Gross:      gross,
		GrossLabel: FormatEuros(gross),
		People:     a.personAmounts(e, total),
	}
}

func (a Aggregator) personAmounts(e Entry, total int) []PersonAmount {
	out := make([]PersonAmount, 0)
	for _, p := range a.Roster {
		n := e.Lecturas.Get(p.ID)
		if n == 0 {
			continue
		}
		gross := Gross(n, a.Prices.Current)
		share := 0
		if total > 0 {
			share = int(decimal.NewFromInt(int64(n * 100)).Div(decimal.NewFromInt(int64(total))).Round(0).IntPart())
		}
		out = append(out, PersonAmount{
			PersonID:   p.ID,
			Lecturas:   n,
			Gross:      gross,
			GrossLabel: FormatEuros(gross),
			Share:      share,
		})
	}
	return out
}

// GlobalMax is the largest single person count in any entry.
func (a Aggregator) GlobalMax(entries []Entry) int {
	m := 0
	for _, e := range entries {
		for _, p := range a.Roster {
			if v := e.Lecturas.Get(p.ID); v > m {
				m = v
			}
		}
	}
	return m
}

// ChartScale turns a global maximum into a safe divisor for bar heights.
func ChartScale(globalMax int) int {
	if globalMax <= 0 {
		return 1
	}
	return globalMax
}

// PersonTotals sums each roster member's counts over month entries only,
// valued at the current price. Sub-periods are excluded to avoid counting
// the same readings twice.
func (a Aggregator) PersonTotals(entries []Entry) []PersonTotal {
	out := make([]PersonTotal, 0, len(a.Roster))
	for _, p := range a.Roster {
		t := 0
		for _, e := range entries {
			if e.IsMonth() {
				t += e.Lecturas.Get(p.ID)
			}
		}
		bruto := Gross(t, a.Prices.Current)
		out = append(out, PersonTotal{Person: p, Total: t, Bruto: bruto, BrutoLabel: FormatEuros(bruto)})
	}
	return out
}

// LastModified returns the greatest timestamp present. ISO-8601 strings
// sort lexicographically, so no parsing is needed.
func LastModified(entries []Entry) (string, bool) {
	latest := ""
	for _, e := range entries {
		if e.TS > latest {
			latest = e.TS
		}
	}
	return latest, latest != ""
}

// GroupHistorical partitions rows by year, newest year first, each year's
// rows by count descending.
func (a Aggregator) GroupHistorical(rows []HistoricalRecord) []HistoricalYear {
	byYear := make(map[int][]HistoricalRecord)
	for _, r := range rows {
		byYear[r.Anio] = append(byYear[r.Anio], r)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]HistoricalYear, 0, len(years))
	for _, y := range years {
		data := byYear[y]
		sort.SliceStable(data, func(i, j int) bool { return data[i].Lecturas > data[j].Lecturas })
		total := 0
		for _, r := range data {
			total += r.Lecturas
		}
		price := a.Prices.ForYear(y)
		gross := Gross(total, price)
		out = append(out, HistoricalYear{
			Year:       y,
			Price:      price,
			Total:      total,
			Gross:      gross,
			GrossLabel: FormatEuros(gross),
			Rows:       data,
		})
	}
	return out
}

// Summarize computes the full dashboard from the three collections.
func (a Aggregator) Summarize(entries []Entry, state AppState, hist []HistoricalRecord) Dashboard {
	totals := a.PersonTotals(entries)
	grand := 0
	for _, t := range totals {
		grand += t.Total
	}
	grandGross := Gross(grand, a.Prices.Current)
	gmax := a.GlobalMax(entries)

	d := Dashboard{
		Price:        a.Prices.Current,
		PriceLabel:   FormatEuros(a.Prices.Current),
		Pendientes:   state.Pendientes,
		PendingLevel: LevelFor(state.Pendientes),
		GlobalMax:    gmax,
		ChartMax:     ChartScale(gmax),
		Months:       a.GroupMonths(entries),
		Totals:       totals,
		GrandTotal:   grand,
		GrandGross:   grandGross,
		GrossLabel:   FormatEuros(grandGross),
		Historical:   a.GroupHistorical(append([]HistoricalRecord(nil), hist...)),
		Roster:       append([]Person(nil), a.Roster...),
	}
	if ts, ok := LastModified(entries); ok {
		d.LastModified = &ts
	}
	return d
}
