package providers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/drme990/manasik-v2-sub001/models"
)

// PaymobVerifier checks the hmac query parameter Paymob attaches to
// transaction processed callbacks.
type PaymobVerifier struct {
	secret []byte
}

func NewPaymobVerifier(secret string) *PaymobVerifier {
	return &PaymobVerifier{secret: []byte(secret)}
}

// Verify reports whether signature matches tx. An unconfigured secret never verifies.
func (v *PaymobVerifier) Verify(tx models.PaymobTransaction, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return false
	}
	return hmac.Equal(v.mac(tx), expected)
}

// Sign returns the hex signature Paymob would send for tx.
func (v *PaymobVerifier) Sign(tx models.PaymobTransaction) string {
	return hex.EncodeToString(v.mac(tx))
}

func (v *PaymobVerifier) mac(tx models.PaymobTransaction) []byte {
	h := hmac.New(sha512.New, v.secret)
	h.Write([]byte(concatenated(tx)))
	return h.Sum(nil)
}

// concatenated joins the signed fields in the lexicographic key order Paymob uses.
func concatenated(tx models.PaymobTransaction) string {
	fields := []string{
		strconv.FormatInt(tx.AmountCents, 10),
		tx.CreatedAt,
		tx.Currency,
		strconv.FormatBool(tx.ErrorOccured),
		strconv.FormatBool(tx.HasParentTransaction),
		strconv.FormatInt(tx.ID, 10),
		strconv.FormatInt(tx.IntegrationID, 10),
		strconv.FormatBool(tx.Is3DSecure),
		strconv.FormatBool(tx.IsAuth),
		strconv.FormatBool(tx.IsCapture),
		strconv.FormatBool(tx.IsRefunded),
		strconv.FormatBool(tx.IsStandalonePayment),
		strconv.FormatBool(tx.IsVoided),
		strconv.FormatInt(tx.Order.ID, 10),
		strconv.FormatInt(tx.Owner, 10),
		strconv.FormatBool(tx.Pending),
		tx.SourceData.Pan,
		tx.SourceData.SubType,
		tx.SourceData.Type,
		strconv.FormatBool(tx.Success),
	}
	return strings.Join(fields, "")
}
