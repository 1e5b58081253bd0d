package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/druk3d/servicebot/bot/texts"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "canonical", in: "+380501234567", want: "+380501234567"},
		{name: "spaces and dashes", in: "+380 50-123-45-67", want: "+380501234567"},
		{name: "contact card with plus", in: "+380991112233", want: "+380991112233"},
		{name: "local format rejected", in: "0501234567", wantErr: true},
		{name: "bare country code rejected", in: "380501234567", wantErr: true},
		{name: "too short", in: "+38050123456", wantErr: true},
		{name: "too long", in: "+3805012345678", wantErr: true},
		{name: "letters after prefix", in: "+38050123456a", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Phone(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Phone(%q) = %q, want error", tt.in, got)
				}
				var verr *Error
				if !errors.As(err, &verr) || verr.Message == "" {
					t.Fatalf("Phone(%q) error %v lacks a user-facing message", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Phone(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("Phone(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !strings.HasPrefix(got, "+380") || len(got) != 13 {
				t.Fatalf("Phone(%q) = %q, not in +380XXXXXXXXX shape", tt.in, got)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	if _, err := Description("коротко"); err == nil {
		t.Fatal("short description accepted")
	}
	if _, err := Description("   дев'ять!  "); err == nil {
		t.Fatal("description under ten runes after trim accepted")
	}
	got, err := Description("  принтер не друкує зовсім  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "принтер не друкує зовсім" {
		t.Fatalf("Description not trimmed: %q", got)
	}
}

func TestPrinterModel(t *testing.T) {
	for _, m := range PrinterModels() {
		if _, err := PrinterModel(m); err != nil {
			t.Fatalf("valid model %q rejected: %v", m, err)
		}
	}
	for _, sentinel := range []string{texts.BtnSkip, texts.BtnOtherModel} {
		got, err := PrinterModel(sentinel)
		if err != nil || got != sentinel {
			t.Fatalf("sentinel %q not passed through: %q, %v", sentinel, got, err)
		}
	}
	if _, err := PrinterModel("Ender 3"); err == nil {
		t.Fatal("unknown model accepted")
	}
}

func TestPlasticType(t *testing.T) {
	for _, p := range PlasticTypes() {
		if _, err := PlasticType(p); err != nil {
			t.Fatalf("valid plastic %q rejected: %v", p, err)
		}
	}
	for _, sentinel := range []string{texts.BtnPlasticSkip, texts.BtnPlasticOther} {
		if _, err := PlasticType(sentinel); err != nil {
			t.Fatalf("sentinel %q rejected: %v", sentinel, err)
		}
	}
	if _, err := PlasticType("дерево"); err == nil {
		t.Fatal("unknown plastic accepted")
	}
}

func TestFullName(t *testing.T) {
	if _, err := FullName("Тарас"); err == nil {
		t.Fatal("single word accepted")
	}
	got, err := FullName("  Тарас   Шевченко ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Тарас   Шевченко" {
		t.Fatalf("FullName = %q", got)
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b@mail.co.uk"}
	invalid := []string{"", "user", "user@", "@example.com", "user@example", "u ser@example.com"}
	for _, v := range valid {
		if !Email(v) {
			t.Fatalf("Email(%q) = false, want true", v)
		}
	}
	for _, v := range invalid {
		if Email(v) {
			t.Fatalf("Email(%q) = true, want false", v)
		}
	}
}
