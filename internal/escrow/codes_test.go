package escrow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAccessCodeCharsetAndLength(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newAccessCode(accessCodeLength)
		assert.NoError(t, err)
		assert.Len(t, code, accessCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(accessCodeCharset, r), "unexpected glyph %q in %s", r, code)
		}
	}
}

func TestNewAccessCodeExcludesAmbiguousGlyphs(t *testing.T) {
	assert.NotContains(t, accessCodeCharset, "0")
	assert.NotContains(t, accessCodeCharset, "O")
	assert.NotContains(t, accessCodeCharset, "1")
	assert.NotContains(t, accessCodeCharset, "I")
}

func TestDeepLink(t *testing.T) {
	assert.Equal(t, "kiwiapp://product/42", deepLink(42))
}

func TestNewPaymentReference(t *testing.T) {
	ref := newPaymentReference()
	assert.True(t, strings.HasPrefix(ref, "KIWI-"))
	assert.Len(t, ref, len("KIWI-")+12)
	assert.Equal(t, ref, strings.ToUpper(ref))
}

func TestPaymentVoucherData(t *testing.T) {
	data := paymentVoucherData("KIWI-ABC123DEF456", 1500)
	assert.Equal(t, "kiwipay://voucher/KIWI-ABC123DEF456?amount=1500.00&currency=BOB", data)
}
