package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType discriminates between money coming in and going out.
	TransactionType string

	// Date is a calendar date with day precision. The time-of-day portion is
	// always midnight UTC; it exists only so month/week bucketing can use the
	// standard library's calendar arithmetic.
	Date struct {
		time.Time
	}

	// Money is an amount in cents. Stored signed: income positive, expense
	// negative. Inputs carry positive magnitudes and the ledger normalizes
	// the sign at write time.
	Money struct {
		Cents int64
	}

	// Transaction is the atomic ledger record.
	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		Category    string
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// TransactionDraft is the caller-supplied input for creating a
	// transaction. Amount is a positive magnitude regardless of type.
	TransactionDraft struct {
		Type        TransactionType
		Amount      Money
		Category    string
		Description string
		Date        Date
	}

	// Category pairs a stable key with its display name. Builtin categories
	// are fixed; user-defined ones are added and removed at runtime.
	Category struct {
		Key     string
		Name    string
		Icon    string
		Builtin bool
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Truncated returns the date with any time-of-day portion stripped.
func (d Date) Truncated() Date {
	return NewDate(d.Time.Year(), int(d.Time.Month()), d.Time.Day())
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Truncated().Time.After(other.Truncated().Time)
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Truncated().Time.Before(other.Truncated().Time)
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Magnitude returns the absolute amount.
func (m Money) Magnitude() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m minus other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Validate checks a draft against the rules the ledger enforces at the
// boundary. now anchors the future-date check so callers and tests agree on
// what "today" means.
func (d TransactionDraft) Validate(now time.Time) error {
	if !d.Type.IsValid() {
		return &ValidationError{Kind: InvalidAmount, Message: "transaction type must be income or expense"}
	}
	if d.Amount.Cents <= 0 {
		return &ValidationError{Kind: InvalidAmount, Message: "amount must be a positive quantity"}
	}
	if strings.TrimSpace(d.Category) == "" {
		return &ValidationError{Kind: MissingCategory, Message: "category is required"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Kind: MissingDescription, Message: "description is required"}
	}
	if len(d.Description) > 200 {
		return &ValidationError{Kind: MissingDescription, Message: "description too long (max 200 characters)"}
	}
	if d.Date.IsZero() {
		return &ValidationError{Kind: FutureDate, Message: "date is required"}
	}
	today := Date{Time: now}
	if d.Date.After(today) {
		return &ValidationError{Kind: FutureDate, Message: "date cannot be in the future"}
	}
	return nil
}

// SignedAmount applies the sign convention to the draft's magnitude:
// income stays positive, expense becomes negative.
func (d TransactionDraft) SignedAmount() Money {
	if d.Type == Expense {
		return d.Amount.Magnitude().Neg()
	}
	return d.Amount.Magnitude()
}

// TypeOf derives the business type from a stored signed amount.
func TypeOf(amount Money) TransactionType {
	if amount.Cents < 0 {
		return Expense
	}
	return Income
}
