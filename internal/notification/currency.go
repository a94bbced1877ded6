package notification

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = newINRPrinter()

func newINRPrinter() *message.Printer {
	tag, err := language.Parse("en-IN")
	if err != nil {
		return nil
	}
	return message.NewPrinter(tag)
}

// FormatINR renders an amount as Indian rupees with locale-correct digit
// grouping and exactly two fraction digits. It never panics: any formatting
// failure falls back to a plain symbol + two-decimal representation.
func FormatINR(amount float64) (formatted string) {
	defer func() {
		if recover() != nil {
			formatted = fmt.Sprintf("₹%.2f", amount)
		}
	}()

	if inrPrinter == nil || amount != amount || amount > 1e15 || amount < -1e15 {
		return fmt.Sprintf("₹%.2f", amount)
	}

	return inrPrinter.Sprintf("₹%v", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
