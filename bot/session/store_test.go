package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	s := NewStore(10)

	first := s.GetOrCreate(42)
	if first.Step != StepInitial {
		t.Fatalf("new session step = %q, want %q", first.Step, StepInitial)
	}
	if first.Request.MediaCount() != 0 || first.Request.Complete() {
		t.Fatal("new session request not empty")
	}

	s.SetFullName(42, "Тарас Шевченко")
	second := s.GetOrCreate(42)
	if second.Request.FullName != "Тарас Шевченко" {
		t.Fatal("GetOrCreate replaced an existing session")
	}
	if s.Len() != 1 {
		t.Fatalf("store has %d sessions, want 1", s.Len())
	}
}

func TestMediaCap(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 7; i++ {
		if _, err := s.AddPhoto(1, fmt.Sprintf("photo-%d", i)); err != nil {
			t.Fatalf("photo %d rejected: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := s.AddVideo(1, fmt.Sprintf("video-%d", i)); err != nil {
			t.Fatalf("video %d rejected: %v", i, err)
		}
	}

	count, err := s.AddPhoto(1, "photo-overflow")
	if !errors.Is(err, ErrMediaLimit) {
		t.Fatalf("11th file: err = %v, want ErrMediaLimit", err)
	}
	if count != 10 {
		t.Fatalf("count after rejected append = %d, want 10", count)
	}
	sess := s.GetOrCreate(1)
	if sess.Request.MediaCount() != 10 {
		t.Fatalf("stored media count = %d, want 10", sess.Request.MediaCount())
	}
}

func TestMediaAfterCompletion(t *testing.T) {
	s := NewStore(10)
	s.GetOrCreate(5)
	s.Complete(5)
	if _, err := s.AddVideo(5, "late"); !errors.Is(err, ErrCompleted) {
		t.Fatalf("append after completion: err = %v, want ErrCompleted", err)
	}
}

func TestCompleteProgression(t *testing.T) {
	s := NewStore(10)
	userID := int64(9)

	check := func(want bool) {
		t.Helper()
		sess := s.GetOrCreate(userID)
		if sess.Request.Complete() != want {
			t.Fatalf("Complete() = %v, want %v (request %+v)", !want, want, sess.Request)
		}
	}

	check(false)
	s.SetFullName(userID, "Леся Українка")
	check(false)
	s.SetPhoneNumber(userID, "+380501234567")
	check(false)
	s.SetPrinterModel(userID, "P1S")
	check(false)
	s.SetDescription(userID, "друкує зі зсувом шарів")
	check(true)
}

func TestClearAndErrStreak(t *testing.T) {
	s := NewStore(10)
	s.SetStep(3, Step("phone_input"))

	if n := s.BumpErrStreak(3); n != 1 {
		t.Fatalf("first bump = %d", n)
	}
	if n := s.BumpErrStreak(3); n != 2 {
		t.Fatalf("second bump = %d", n)
	}
	s.ResetErrStreak(3)
	if n := s.BumpErrStreak(3); n != 1 {
		t.Fatalf("bump after reset = %d", n)
	}

	s.Clear(3)
	if s.Step(3) != StepInitial {
		t.Fatal("cleared session did not reset to initial")
	}
	if s.Len() != 0 {
		t.Fatalf("store not empty after Clear: %d", s.Len())
	}
}

func TestSweep(t *testing.T) {
	s := NewStore(10)
	s.SetStep(1, Step("order_input"))
	s.SetStep(2, Step("order_input"))

	s.mu.Lock()
	s.sessions[1].TouchedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	if evicted := s.Sweep(time.Hour); evicted != 1 {
		t.Fatalf("Sweep evicted %d, want 1", evicted)
	}
	if s.Len() != 1 {
		t.Fatalf("store has %d sessions after sweep, want 1", s.Len())
	}
	if evicted := s.Sweep(0); evicted != 0 {
		t.Fatal("Sweep with zero idle must be a no-op")
	}
}

func TestSweepCallsOnEvict(t *testing.T) {
	s := NewStore(10)
	var evicted []int64
	s.OnEvict(func(userID int64) { evicted = append(evicted, userID) })

	s.SetStep(1, Step("order_input"))
	s.SetStep(2, Step("order_input"))

	s.mu.Lock()
	s.sessions[1].TouchedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	if n := s.Sweep(time.Hour); n != 1 {
		t.Fatalf("Sweep evicted %d, want 1", n)
	}
	if len(evicted) != 1 || evicted[0] != 1 {
		t.Fatalf("hook saw %v, want [1]", evicted)
	}
}

func TestSummaryOrderAndOmissions(t *testing.T) {
	order := "DRK-1042"
	r := Request{
		OrderNumber:      &order,
		FullName:         "Іван Франко",
		PhoneNumber:      "+380501234567",
		PrinterModel:     "X1C Combo",
		PlasticType:      "BambuLab PLA",
		IssueDescription: "екструдер клацає і пропускає подачу",
		PhotoFiles:       []string{"a", "b"},
		VideoFiles:       []string{"c"},
	}
	summary := r.Summary()

	wantInOrder := []string{
		"Нова заявка",
		"Іван Франко",
		"+380501234567",
		"DRK-1042",
		"X1C Combo",
		"BambuLab PLA",
		"екструдер клацає",
		"2 фото, 1 відео",
	}
	pos := -1
	for _, token := range wantInOrder {
		idx := strings.Index(summary, token)
		if idx < 0 {
			t.Fatalf("summary missing %q:\n%s", token, summary)
		}
		if idx < pos {
			t.Fatalf("summary token %q out of order:\n%s", token, summary)
		}
		pos = idx
	}

	bare := Request{
		FullName:         "Іван Франко",
		PhoneNumber:      "+380501234567",
		IssueDescription: "не гріється стіл, помилка підігріву",
	}
	bareSummary := bare.Summary()
	if strings.Contains(bareSummary, "Принтер") || strings.Contains(bareSummary, "Пластик") {
		t.Fatalf("optional absent sections rendered:\n%s", bareSummary)
	}
	if strings.Contains(bareSummary, "N/A") {
		t.Fatal("summary rendered a placeholder for an absent field")
	}
	if !strings.Contains(bareSummary, "купували не у нас") {
		t.Fatalf("nil order number not rendered as non-customer:\n%s", bareSummary)
	}
}

func TestUsers(t *testing.T) {
	u := NewUsers()
	first := u.GetOrCreate(7, "Олена", "Пчілка")
	if first.FullName() != "Олена Пчілка" {
		t.Fatalf("FullName = %q", first.FullName())
	}
	again := u.GetOrCreate(7, "Інше", "Ім'я")
	if again.FirstName != "Олена" {
		t.Fatal("GetOrCreate overwrote stored profile")
	}
	updated := u.SetName(7, "Нове", "Ім'я")
	if updated.FullName() != "Нове Ім'я" {
		t.Fatalf("SetName result = %q", updated.FullName())
	}
}
