package escrow

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Access codes exclude ambiguous glyphs (0, O, 1, I) so they survive being
// read over the phone or copied from a printed label.
const accessCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const accessCodeLength = 6

// newAccessCode generates a random human-enterable code. Uniqueness is the
// caller's problem; retry on collision.
func newAccessCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(accessCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate access code: %w", err)
		}
		code[i] = accessCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// deepLink builds the kiwiapp://product/<id> link encoded in the listing QR.
func deepLink(contractID uint) string {
	return fmt.Sprintf("%s%d", DeepLinkPrefix, contractID)
}

// newPaymentReference issues the unique reference printed on the bank voucher.
func newPaymentReference() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "KIWI-" + raw[:12]
}

// paymentVoucherData builds the payload the buyer's banking app scans to pay
// into escrow.
func paymentVoucherData(reference string, amount float64) string {
	return fmt.Sprintf("kiwipay://voucher/%s?amount=%.2f&currency=BOB", reference, amount)
}
