package flow

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/druk3d/servicebot/bot/dispatch"
	"github.com/druk3d/servicebot/bot/session"
	"github.com/druk3d/servicebot/bot/texts"
)

type engineerBot struct {
	sent []interface{}
}

func (b *engineerBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b.sent = append(b.sent, what)
	return &tele.Message{}, nil
}

func (b *engineerBot) SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error) {
	b.sent = append(b.sent, a)
	return nil, nil
}

// testCtx implements just the slice of tele.Context the engine touches.
// Anything else panics, which is exactly what a test should do.
type testCtx struct {
	tele.Context

	sender  *tele.User
	msg     *tele.Message
	sent    []string
	sendErr error
	store   map[string]interface{}
}

func (c *testCtx) Sender() *tele.User { return c.sender }

func (c *testCtx) Set(key string, val interface{}) {
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = val
}

func (c *testCtx) Get(key string) interface{} { return c.store[key] }

func (c *testCtx) Message() *tele.Message { return c.msg }

func (c *testCtx) Text() string {
	if c.msg == nil {
		return ""
	}
	return c.msg.Text
}

func (c *testCtx) Send(what interface{}, opts ...interface{}) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func textCtx(userID int64, text string) *testCtx {
	return &testCtx{
		sender: &tele.User{ID: userID, FirstName: "Тарас", LastName: "Шевченко"},
		msg:    &tele.Message{Text: text},
	}
}

func contactCtx(userID int64, phone string) *testCtx {
	c := textCtx(userID, "")
	c.msg.Contact = &tele.Contact{PhoneNumber: phone}
	return c
}

func photoCtx(userID int64, fileID string, size int64) *testCtx {
	c := textCtx(userID, "")
	c.msg.Photo = &tele.Photo{File: tele.File{FileID: fileID, FileSize: size}}
	return c
}

func videoCtx(userID int64, fileID, mime string, size int64) *testCtx {
	c := textCtx(userID, "")
	c.msg.Video = &tele.Video{File: tele.File{FileID: fileID, FileSize: size}, MIME: mime}
	return c
}

func documentCtx(userID int64, fileID string) *testCtx {
	c := textCtx(userID, "")
	c.msg.Document = &tele.Document{File: tele.File{FileID: fileID, FileSize: 1024}}
	return c
}

func newEngine() (*Engine, *session.Store, *engineerBot) {
	store := session.NewStore(10)
	bot := &engineerBot{}
	eng := New(Options{
		Store:      store,
		Users:      session.NewUsers(),
		Dispatcher: dispatch.New(bot, 42),
	})
	return eng, store, bot
}

func sentContains(sent []string, substr string) bool {
	for _, s := range sent {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestNoOrderSentinelCaseInsensitive(t *testing.T) {
	eng, store, _ := newEngine()
	const user = int64(1)

	if err := eng.Begin(textCtx(user, texts.BtnBreakdown)); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := store.Step(user); got != StepOrderInput {
		t.Fatalf("step after begin = %q, want %q", got, StepOrderInput)
	}

	c := textCtx(user, "НЕМАЄ")
	if err := eng.Handle(c); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := store.Step(user); got != StepNameInput {
		t.Fatalf("step = %q, want %q", got, StepNameInput)
	}

	sess := store.GetOrCreate(user)
	if sess.Request.OrderNumber != nil {
		t.Fatalf("order number = %v, want nil", *sess.Request.OrderNumber)
	}
	if !sentContains(c.sent, texts.AckNoOrder) {
		t.Fatalf("missing no-order acknowledgement in %v", c.sent)
	}
}

func TestNameStoredVerbatim(t *testing.T) {
	eng, store, _ := newEngine()
	const user = int64(2)

	store.GetOrCreate(user)
	store.SetStep(user, StepNameInput)

	if err := eng.Handle(textCtx(user, "  Леся Українка  ")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	sess := store.GetOrCreate(user)
	if sess.Request.FullName != "Леся Українка" {
		t.Fatalf("full name = %q", sess.Request.FullName)
	}
	if got := store.Step(user); got != StepPhoneInput {
		t.Fatalf("step = %q, want %q", got, StepPhoneInput)
	}
}

func TestPhoneRejectsLaxFormats(t *testing.T) {
	eng, store, _ := newEngine()
	const user = int64(3)

	store.GetOrCreate(user)
	store.SetStep(user, StepPhoneInput)

	for _, raw := range []string{"0501234567", "380501234567", "+38050123456"} {
		c := textCtx(user, raw)
		if err := eng.Handle(c); err != nil {
			t.Fatalf("Handle(%q): %v", raw, err)
		}
		if got := store.Step(user); got != StepPhoneInput {
			t.Fatalf("step after %q = %q, want to stay on %q", raw, got, StepPhoneInput)
		}
	}
	sess := store.GetOrCreate(user)
	if sess.Request.PhoneNumber != "" {
		t.Fatalf("phone stored despite rejections: %q", sess.Request.PhoneNumber)
	}

	// Contact cards come without the plus sign and must pass.
	c := contactCtx(user, "380501234567")
	if err := eng.Handle(c); err != nil {
		t.Fatalf("Handle(contact): %v", err)
	}
	sess = store.GetOrCreate(user)
	if sess.Request.PhoneNumber != "+380501234567" {
		t.Fatalf("phone = %q, want +380501234567", sess.Request.PhoneNumber)
	}
	if got := store.Step(user); got != StepPrinterModelInput {
		t.Fatalf("step = %q, want %q", got, StepPrinterModelInput)
	}
}

func TestMediaCapAndKinds(t *testing.T) {
	eng, store, _ := newEngine()
	const user = int64(4)

	store.GetOrCreate(user)
	store.SetStep(user, StepMediaUpload)

	for i := 0; i < 10; i++ {
		c := photoCtx(user, fmt.Sprintf("photo-%d", i), 1024)
		if err := eng.Handle(c); err != nil {
			t.Fatalf("Handle photo %d: %v", i, err)
		}
	}
	sess := store.GetOrCreate(user)
	if got := sess.Request.MediaCount(); got != 10 {
		t.Fatalf("media count = %d, want 10", got)
	}

	over := photoCtx(user, "photo-extra", 1024)
	if err := eng.Handle(over); err != nil {
		t.Fatalf("Handle overflow photo: %v", err)
	}
	if !sentContains(over.sent, "ліміт файлів") {
		t.Fatalf("missing limit message in %v", over.sent)
	}
	sess = store.GetOrCreate(user)
	if got := sess.Request.MediaCount(); got != 10 {
		t.Fatalf("media count after overflow = %d, want 10", got)
	}

	// Oversized and wrong-MIME files are rejected without counting.
	store.Clear(user)
	store.GetOrCreate(user)
	store.SetStep(user, StepMediaUpload)

	big := photoCtx(user, "big", 11*1024*1024)
	if err := eng.Handle(big); err != nil {
		t.Fatalf("Handle big photo: %v", err)
	}
	avi := videoCtx(user, "clip", "video/x-msvideo", 1024)
	if err := eng.Handle(avi); err != nil {
		t.Fatalf("Handle avi: %v", err)
	}
	sess = store.GetOrCreate(user)
	if got := sess.Request.MediaCount(); got != 0 {
		t.Fatalf("media count = %d, want 0", got)
	}

	// A document (PNG sent as a file, a PDF) is answered, not ignored.
	doc := documentCtx(user, "scan.pdf")
	if err := eng.Handle(doc); err != nil {
		t.Fatalf("Handle document: %v", err)
	}
	if !sentContains(doc.sent, texts.ErrMediaKind) {
		t.Fatalf("document not rejected with the media-kind message: %v", doc.sent)
	}
	sess = store.GetOrCreate(user)
	if got := sess.Request.MediaCount(); got != 0 {
		t.Fatalf("media count after document = %d, want 0", got)
	}
}

func TestConfirmDispatchesAndClears(t *testing.T) {
	eng, store, bot := newEngine()
	const user = int64(5)

	store.GetOrCreate(user)
	store.SetFullName(user, "Іван Франко")
	store.SetPhoneNumber(user, "+380501234567")
	store.SetPrinterModel(user, "P1S")
	store.SetDescription(user, "Не працює екструдер, пластик не подається")
	if _, err := store.AddPhoto(user, "photo-1"); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	store.SetStep(user, StepConfirmation)

	c := textCtx(user, texts.BtnConfirm)
	if err := eng.Handle(c); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(bot.sent) < 2 {
		t.Fatalf("engineer got %d sends, want summary and album", len(bot.sent))
	}
	summary, ok := bot.sent[0].(string)
	if !ok {
		t.Fatalf("first engineer send is %T, want string", bot.sent[0])
	}
	for _, token := range []string{
		texts.SummaryHeader, "Іван Франко", "+380501234567", "P1S",
	} {
		if !strings.Contains(summary, token) {
			t.Fatalf("summary missing %q:\n%s", token, summary)
		}
	}
	if !sentContains(c.sent, texts.Dispatched) {
		t.Fatalf("user was not told the request is accepted: %v", c.sent)
	}

	sess := store.GetOrCreate(user)
	if sess.Step != session.StepInitial || sess.Request.FullName != "" {
		t.Fatalf("session not cleared: step=%q name=%q", sess.Step, sess.Request.FullName)
	}
}

func TestCancelResetsDialog(t *testing.T) {
	eng, store, _ := newEngine()
	const user = int64(6)

	store.GetOrCreate(user)
	store.SetFullName(user, "Іван Франко")
	store.SetStep(user, StepConfirmation)

	c := textCtx(user, texts.BtnCancel)
	if err := eng.Handle(c); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !sentContains(c.sent, texts.Cancelled) {
		t.Fatalf("missing cancel confirmation in %v", c.sent)
	}
	sess := store.GetOrCreate(user)
	if sess.Step != session.StepInitial || sess.Request.FullName != "" {
		t.Fatalf("session survived cancel: step=%q name=%q", sess.Step, sess.Request.FullName)
	}
}

func TestErrStreakNotifiesEngineer(t *testing.T) {
	eng, store, bot := newEngine()
	const user = int64(7)

	store.GetOrCreate(user)
	store.SetStep(user, StepOrderInput)

	for i := 0; i < 3; i++ {
		c := textCtx(user, "12345")
		c.sendErr = errors.New("telegram is down")
		if err := eng.Handle(c); err != nil {
			t.Fatalf("Handle %d: %v", i, err)
		}
	}

	found := false
	for _, what := range bot.sent {
		if s, ok := what.(string); ok && strings.Contains(s, "третій раз поспіль") {
			found = true
		}
	}
	if !found {
		t.Fatalf("engineer not notified after three straight failures: %v", bot.sent)
	}

	sess := store.GetOrCreate(user)
	if sess.ErrStreak != 0 {
		t.Fatalf("err streak = %d, want reset to 0", sess.ErrStreak)
	}
}

func TestOffScriptTextShowsWelcome(t *testing.T) {
	eng, _, _ := newEngine()

	c := textCtx(8, "привіт")
	if err := eng.Handle(c); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !sentContains(c.sent, "Вітаємо") {
		t.Fatalf("expected welcome prompt, got %v", c.sent)
	}
}
