package core

import (
	"strings"
)

// Category is the closed set of account categories the views understand.
// It is always derived from the raw account-type text, never stored.
type Category int

const (
	Unclassified Category = iota
	HaulingIncome
	FuelAndOil
	DriversAllowance
	InsuranceExpense
	RepairsAndMaintenanceExpense
	TaxesPermitsAndLicensesExpense
	SalariesAndWages
	TaxExpense
	EmployeeBenefitsExpense
)

var categoryNames = map[Category]string{
	Unclassified:                   "Other",
	HaulingIncome:                  "Hauling Income",
	FuelAndOil:                     "Fuel & Oil",
	DriversAllowance:               "Driver's Allowance",
	InsuranceExpense:               "Insurance Expense",
	RepairsAndMaintenanceExpense:   "Repairs and Maintenance Expense",
	TaxesPermitsAndLicensesExpense: "Taxes, Permits and Licenses Expense",
	SalariesAndWages:               "Salaries and Wages",
	TaxExpense:                     "Tax Expense",
	EmployeeBenefitsExpense:        "Employee Benefits Expense",
}

// opexCategories lists the OPEX subtypes in report order.
var opexCategories = []Category{
	InsuranceExpense,
	RepairsAndMaintenanceExpense,
	TaxesPermitsAndLicensesExpense,
	SalariesAndWages,
	TaxExpense,
	EmployeeBenefitsExpense,
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[Unclassified]
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText reads a display name back. Unknown names are Unclassified.
func (c *Category) UnmarshalText(b []byte) error {
	*c = Unclassified
	for cat, name := range categoryNames {
		if name == string(b) {
			*c = cat
			break
		}
	}
	return nil
}

// IsOPEX reports whether c is one of the operating-expense subtypes.
func (c Category) IsOPEX() bool {
	return c >= InsuranceExpense && c <= EmployeeBenefitsExpense
}

// KeepsRemarks reports whether remarks of this category are shown on a trip.
func (c Category) KeepsRemarks() bool {
	return c == HaulingIncome || c == FuelAndOil || c == DriversAllowance
}

// OPEXCategories returns the OPEX subtypes in report order.
func OPEXCategories() []Category {
	return append([]Category(nil), opexCategories...)
}

// Classify maps an account-type display string to its category.
func Classify(accountType string) Category {
	name := strings.TrimSpace(accountType)
	if name == "" {
		return Unclassified
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "hauling income"):
		return HaulingIncome
	case strings.Contains(lower, "fuel"):
		return FuelAndOil
	case isDriversAllowance(lower):
		return DriversAllowance
	}
	for _, c := range opexCategories {
		if strings.EqualFold(name, categoryNames[c]) {
			return c
		}
	}
	return Unclassified
}

// ClassifyRef classifies a string-or-object account type.
func ClassifyRef(ref NameRef) Category {
	return Classify(ref.String())
}

func isDriversAllowance(lower string) bool {
	stripped := strings.NewReplacer("'", "", "’", "", "`", "").Replace(lower)
	return strings.Contains(stripped, "driver") && strings.Contains(stripped, "allowance")
}
