package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cleared-dev/books/internal/model"
)

var prefixes = map[string]string{
	string(model.VoucherPayment):    "PAY",
	string(model.VoucherReceipt):    "RCT",
	string(model.VoucherContra):     "CTR",
	string(model.VoucherJournal):    "JV",
	string(model.VoucherSales):      "SAL",
	string(model.VoucherPurchase):   "PUR",
	string(model.VoucherDebitNote):  "DN",
	string(model.VoucherCreditNote): "CN",
	string(model.TradeInvoice):      "INV",
	string(model.TradeBill):         "BILL",
}

// Prefix returns the number prefix for a document type. Unknown types use
// their own name upper-cased.
func Prefix(docType string) string {
	if p, ok := prefixes[docType]; ok {
		return p
	}
	return strings.ToUpper(docType)
}

// FormatNumber returns a document number like "PAY-00042".
func FormatNumber(docType string, seq int64) string {
	return fmt.Sprintf("%s-%05d", Prefix(docType), seq)
}

// ParseNumber splits "PAY-00042" into its prefix and sequence.
func ParseNumber(number string) (prefix string, seq int64, err error) {
	i := strings.LastIndex(number, "-")
	if i <= 0 || i == len(number)-1 {
		return "", 0, fmt.Errorf("invalid document number format: %q", number)
	}
	seq, err = strconv.ParseInt(number[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}
	if seq <= 0 {
		return "", 0, fmt.Errorf("invalid sequence in document number %q: must be positive", number)
	}
	return number[:i], seq, nil
}

// VoucherType resolves a number like "SAL-00003" to its voucher type.
func VoucherType(number string) (model.VoucherType, error) {
	prefix, _, err := ParseNumber(number)
	if err != nil {
		return "", err
	}
	for _, vt := range model.VoucherTypes {
		if Prefix(string(vt)) == strings.ToUpper(prefix) {
			return vt, nil
		}
	}
	return "", fmt.Errorf("%q is not a voucher number", number)
}
