package sms

import "strings"

// FormatE164 规范化为 E.164。已带 + 的号码只去掉分隔符；
// 10 位本地号码补默认国家码；以国家码开头的长号码补 +。
func FormatE164(phone, defaultCountryCode string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		return "+" + digits
	}

	cc := strings.TrimPrefix(defaultCountryCode, "+")
	if cc == "" {
		cc = "1"
	}
	if len(digits) > 10 && strings.HasPrefix(digits, cc) {
		return "+" + digits
	}
	return "+" + cc + digits
}
