package report

import (
	"sort"
	"strconv"

	"github.com/riderops/riderops/pkg/model"
)

// Pivot 按合同×城市统计班次条数。
// 列为各城市加合计，最后一行为各城市的合计。
func (b *Builder) Pivot(records []model.ShiftRecord) *model.ReportTable {
	type combo struct {
		contract string
		city     string
	}
	counts := make(map[combo]int)
	contractSet := make(map[string]struct{})
	citySet := make(map[string]struct{})
	for _, rec := range records {
		contract, city := rec.Contract, rec.City
		if contract == "" {
			contract = "Unknown"
		}
		if city == "" {
			city = "Unknown"
		}
		counts[combo{contract, city}]++
		contractSet[contract] = struct{}{}
		citySet[city] = struct{}{}
	}

	contracts := make([]string, 0, len(contractSet))
	for c := range contractSet {
		contracts = append(contracts, c)
	}
	sort.Strings(contracts)

	cities := make([]string, 0, len(citySet))
	for c := range citySet {
		cities = append(cities, c)
	}
	rank := b.cityRank()
	sort.Slice(cities, func(i, j int) bool {
		ri, rj := rank(cities[i]), rank(cities[j])
		if ri != rj {
			return ri < rj
		}
		return cities[i] < cities[j]
	})

	columns := append([]string{"Contract"}, cities...)
	columns = append(columns, "Total")
	table := &model.ReportTable{Title: "Shifts by Contract and City", Columns: columns}

	cityTotals := make(map[string]int, len(cities))
	for _, contract := range contracts {
		cells := make([]string, 0, len(columns))
		cells = append(cells, contract)
		rowTotal := 0
		for _, city := range cities {
			n := counts[combo{contract, city}]
			rowTotal += n
			cityTotals[city] += n
			cells = append(cells, strconv.Itoa(n))
		}
		cells = append(cells, strconv.Itoa(rowTotal))
		table.AddRow(cells...)
	}

	if b.grandTotal && len(contracts) > 0 {
		cells := make([]string, 0, len(columns))
		cells = append(cells, model.GrandTotalLabel)
		grand := 0
		for _, city := range cities {
			grand += cityTotals[city]
			cells = append(cells, strconv.Itoa(cityTotals[city]))
		}
		cells = append(cells, strconv.Itoa(grand))
		table.AddRow(cells...)
	}

	return table
}

// NoShowPivot 只统计缺勤班次的合同×城市分布
func (b *Builder) NoShowPivot(records []model.ShiftRecord) *model.ReportTable {
	noShows := make([]model.ShiftRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status.IsNoShow() {
			noShows = append(noShows, rec)
		}
	}
	table := b.Pivot(noShows)
	table.Title = "No-show Shifts by Contract and City"
	return table
}

// StatusPivot 按状态统计班次条数，行为状态、单列计数
func (b *Builder) StatusPivot(records []model.ShiftRecord) *model.ReportTable {
	counts := make(map[string]int)
	for _, rec := range records {
		status := string(rec.Status)
		if status == "" {
			status = "UNKNOWN"
		}
		counts[status]++
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	table := &model.ReportTable{Title: "Shifts by Status", Columns: []string{"Status", "Count"}}
	total := 0
	for _, s := range statuses {
		total += counts[s]
		table.AddRow(s, strconv.Itoa(counts[s]))
	}
	if b.grandTotal && len(statuses) > 0 {
		table.AddRow(model.GrandTotalLabel, strconv.Itoa(total))
	}
	return table
}
