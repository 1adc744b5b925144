package core

// CategoryAmount is an absolute amount aggregated under one category key.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// MetricsSnapshot is derived from a transaction snapshot and never persisted.
// TotalExpenses is an absolute value; Balance is TotalIncome - TotalExpenses.
type MetricsSnapshot struct {
	TotalIncome      Money
	TotalExpenses    Money
	Balance          Money
	TopCategories    []CategoryAmount
	TransactionCount int
}

// DailyPoint is one day in a gap-free daily series.
type DailyPoint struct {
	Date     Date
	Income   Money
	Expenses Money
}

// MonthlyPoint is one calendar month in a gap-free monthly series.
type MonthlyPoint struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
	Balance  Money
}
