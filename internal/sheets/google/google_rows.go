package google

import (
	"strings"
	"time"

	"tripledger/internal/core"
	"tripledger/internal/sheets"
)

// tripHeader is the first row of the trips sheet.
var tripHeader = []interface{}{
	"Date", "Plate Number", "Truck Type", "Company", "Driver", "Route",
	"Front Load", "Back Load", "Front Load Amount", "Back Load Amount",
	"Front and Back Load Amount", "Income", "Allowance", "Fuel Liters",
	"Fuel Amount", "Reference Numbers", "Remarks",
}

// tripRows renders the header plus one row per trip.
func tripRows(trips []core.Trip) [][]interface{} {
	rows := make([][]interface{}, 0, len(trips)+1)
	rows = append(rows, tripHeader)
	for _, t := range trips {
		rows = append(rows, []interface{}{
			t.Date,
			t.PlateNumber,
			t.TruckType,
			t.Company,
			t.Driver,
			t.Route,
			t.FrontLoad,
			t.BackLoad,
			core.Pesos(t.FrontLoadAmount),
			core.Pesos(t.BackLoadAmount),
			core.Pesos(t.FrontAndBackLoadAmount),
			core.Pesos(t.Income),
			core.Pesos(t.Allowance),
			core.Pesos(t.FuelLiters),
			core.Pesos(t.FuelAmount),
			strings.Join(t.ReferenceNumbers, ", "),
			t.RemarksText,
		})
	}
	return rows
}

// summaryRows renders the revenue summary as label/value pairs followed by
// the driver earnings table.
func summaryRows(r sheets.Report) [][]interface{} {
	rev := r.Revenue
	rows := [][]interface{}{
		{"Generated At", r.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Generation", r.Generation},
		{"Hauling Income", core.Pesos(rev.HaulingIncome)},
		{"Rice Hull Ton", core.Pesos(rev.RiceHullTon)},
		{"Gross Revenue", core.Pesos(rev.GrossRevenue)},
		{"Front Load", core.Pesos(rev.FrontLoad)},
		{"Back Load", core.Pesos(rev.BackLoad)},
		{"Front and Back Load", core.Pesos(rev.FrontAndBackLoad)},
		{"Unattributed", core.Pesos(rev.Unattributed)},
		{"Fuel", core.Pesos(rev.Fuel)},
		{"Driver's Allowance", core.Pesos(rev.Allowance)},
		{"Cost of Service", core.Pesos(rev.CostOfService)},
	}
	for _, c := range rev.OPEX {
		rows = append(rows, []interface{}{c.Category.String(), core.Pesos(c.Amount)})
	}
	rows = append(rows,
		[]interface{}{"Total OPEX", core.Pesos(rev.OPEXTotal)},
		[]interface{}{"Net Income", core.Pesos(rev.NetIncome)},
		[]interface{}{},
		[]interface{}{"Driver", "Trips", "Income", "Front Load", "Back Load", "Unattributed", "Allowance", "Fuel"},
	)
	for _, d := range r.Drivers {
		rows = append(rows, []interface{}{
			d.Driver, d.Trips,
			core.Pesos(d.Income), core.Pesos(d.FrontLoad), core.Pesos(d.BackLoad),
			core.Pesos(d.Unattributed), core.Pesos(d.Allowance), core.Pesos(d.Fuel),
		})
	}
	return rows
}

// columnName converts a 1-based column index to its A1 letters.
func columnName(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func widest(rows [][]interface{}) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}
