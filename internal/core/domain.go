package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
	Saving  TransactionType = "saving"
)

// MaxDescriptionLength bounds the free-text label of a transaction.
const MaxDescriptionLength = 200

type (
	TransactionType string

	// Transaction is a single recorded financial event. ID is assigned by the
	// ledger at creation time and never changes afterwards.
	Transaction struct {
		ID          string
		Amount      decimal.Decimal
		Category    Category
		Type        TransactionType
		Description string
		Date        time.Time
	}

	// Draft carries every mutable field of a transaction. It is the input of
	// both the add and the edit path.
	Draft struct {
		Amount      decimal.Decimal
		Category    Category
		Type        TransactionType
		Description string
		Date        time.Time
	}

	// Budget is a monthly spending limit for one category.
	Budget struct {
		Category Category
		Limit    decimal.Decimal
	}
)

// TransactionTypes returns every type in display order.
func TransactionTypes() []TransactionType {
	return []TransactionType{Income, Expense, Saving}
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Saving:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType accepts the lower-case wire names, ignoring case and
// surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Reason: "must be one of income, expense, saving"}
	}
	return t, nil
}

// Validate checks a draft before it reaches the ledger.
func (d Draft) Validate() error {
	if err := d.validateFields(); err != nil {
		return err
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	}
	return nil
}

func (d Draft) validateFields() error {
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !d.Category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category " + quote(string(d.Category))}
	}
	if !d.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown type " + quote(string(d.Type))}
	}
	return nil
}

// Normalize trims the description and falls back to the category display
// name when it is empty.
func (d Draft) Normalize() Draft {
	d.Description = strings.TrimSpace(d.Description)
	if d.Description == "" {
		d.Description = d.Category.DisplayName()
	}
	return d
}

// Draft returns the mutable fields of t.
func (t Transaction) Draft() Draft {
	return Draft{
		Amount:      t.Amount,
		Category:    t.Category,
		Type:        t.Type,
		Description: t.Description,
		Date:        t.Date,
	}
}

// Validate checks a stored transaction, including its identifier. The
// description length limit applies to new input only, so records written
// by older clients with longer labels still load.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	return t.Draft().validateFields()
}

// BalanceEffect is the signed contribution of t to the available balance:
// income adds, expenses and savings subtract.
func (t Transaction) BalanceEffect() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

func (b Budget) Validate() error {
	if !b.Category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category " + quote(string(b.Category))}
	}
	if b.Category.IncomeOnly() {
		return &ValidationError{Field: "category", Reason: quote(string(b.Category)) + " is an income category"}
	}
	if !b.Limit.IsPositive() {
		return &ValidationError{Field: "limit", Reason: "must be greater than zero"}
	}
	return nil
}

func quote(s string) string {
	return "'" + s + "'"
}
