// Package validate contains pure validators for user-supplied form input.
// Each validator returns the canonical value and an *Error whose message is
// safe to show to the user verbatim.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/druk3d/servicebot/bot/texts"
)

// Error carries a user-facing Ukrainian message for a failed validation.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(msg string) error { return &Error{Message: msg} }

// DescriptionMinLength is the minimum rune count of an issue description.
const DescriptionMinLength = 10

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	printerModels = map[string]struct{}{
		"X1C": {}, "X1C Combo": {}, "X1E": {},
		"P1P": {}, "P1S": {}, "P1S Combo": {},
		"A1": {}, "A1 Combo": {}, "A1 mini": {}, "A1 mini Combo": {},
	}

	plasticTypes = map[string]struct{}{
		"BambuLab PLA": {}, "PLA інший бренд": {},
		"BambuLab PETG": {}, "PETG інший бренд": {},
		"BambuLab TPU": {}, "TPU інший бренд": {},
		"BambuLab ABS": {}, "ABS інший бренд": {},
	}
)

// PrinterModels returns the fixed model set in keyboard order.
func PrinterModels() []string {
	return []string{
		"X1C", "X1C Combo", "X1E",
		"P1P", "P1S", "P1S Combo",
		"A1", "A1 Combo", "A1 mini",
		"A1 mini Combo",
	}
}

// PlasticTypes returns the fixed plastic set in keyboard order.
func PlasticTypes() []string {
	return []string{
		"BambuLab PLA", "PLA інший бренд",
		"BambuLab PETG", "PETG інший бренд",
		"BambuLab TPU", "TPU інший бренд",
		"BambuLab ABS", "ABS інший бренд",
	}
}

// Phone normalizes and validates a Ukrainian phone number. Spaces and
// dashes are stripped; the canonical shape is +380 followed by exactly
// nine digits. Contact cards deliver the number without the plus sign,
// so callers prefix it before validation.
func Phone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if !strings.HasPrefix(cleaned, "+380") {
		return "", fail("❗️ Номер телефону має починатися з +380")
	}
	if len(cleaned) != 13 {
		return "", fail("❗️ Введіть будь ласка номер тільки у форматі +380XXXXXXXXX")
	}
	for _, r := range cleaned[4:] {
		if r < '0' || r > '9' {
			return "", fail("❗️ Після +380 мають бути тільки цифри")
		}
	}
	return cleaned, nil
}

// Email reports whether raw has a local@domain.tld shape.
func Email(raw string) bool {
	return emailRe.MatchString(strings.TrimSpace(raw))
}

// Description trims the issue description and enforces the minimum length.
func Description(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < DescriptionMinLength {
		return "", fail("❌ Опис проблеми занадто короткий. Будь ласка, опишіть проблему детальніше (мінімум 10 символів)")
	}
	return trimmed, nil
}

// PrinterModel accepts a member of the fixed model set, the skip sentinel
// or the other-model sentinel; anything else fails with a re-prompt message.
func PrinterModel(raw string) (string, error) {
	if raw == texts.BtnSkip || raw == texts.BtnOtherModel {
		return raw, nil
	}
	if _, ok := printerModels[raw]; ok {
		return raw, nil
	}
	return "", fail(texts.ErrPrinterModel)
}

// PlasticType accepts a member of the fixed plastic set, the skip sentinel
// or the other-type sentinel.
func PlasticType(raw string) (string, error) {
	if raw == texts.BtnPlasticSkip || raw == texts.BtnPlasticOther {
		return raw, nil
	}
	if _, ok := plasticTypes[raw]; ok {
		return raw, nil
	}
	return "", fail(texts.ErrPlasticType)
}

// FullName requires at least two words.
func FullName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(strings.Fields(trimmed)) < 2 {
		return "", fail(texts.ErrName)
	}
	return trimmed, nil
}
