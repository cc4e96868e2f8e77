package mfa

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// AttrPhone is the user attribute holding the destination phone number.
const AttrPhone = "phone"

const (
	maskChar      = '*'
	visibleSuffix = 3
)

// MaskPhone hides all but the last three characters of phone, e.g. "+4917612345" becomes
// "********345".
func MaskPhone(phone string) (string, error) {
	r := []rune(phone)
	if len(r) < visibleSuffix {
		return "", fmt.Errorf("%w: phone shorter than %d characters", ErrInvalidInput, visibleSuffix)
	}
	hidden := len(r) - visibleSuffix
	return strings.Repeat(string(maskChar), hidden) + string(r[hidden:]), nil
}

// ValidPhone reports whether phone parses as a valid number in international format.
func ValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false
	}
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
