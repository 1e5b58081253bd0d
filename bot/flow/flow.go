// Package flow drives the service-request dialog: a per-user state
// machine that walks from the order number to the final confirmation
// and hands the collected request to dispatch.
package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/druk3d/servicebot/bot/dispatch"
	"github.com/druk3d/servicebot/bot/media"
	"github.com/druk3d/servicebot/bot/reminder"
	"github.com/druk3d/servicebot/bot/session"
	"github.com/druk3d/servicebot/bot/texts"
	"github.com/druk3d/servicebot/bot/validate"
	"github.com/druk3d/servicebot/core/logger"
	tghelpers "github.com/druk3d/servicebot/core/telegram/helpers"
)

// Dialog steps in walking order. The store only knows the zero value;
// the rest of the set lives here.
const (
	StepInitial            = session.StepInitial
	StepOrderInput         session.Step = "order_input"
	StepNameInput          session.Step = "name_input"
	StepPhoneInput         session.Step = "phone_input"
	StepPrinterModelInput  session.Step = "printer_model_input"
	StepCustomPrinterModel session.Step = "custom_printer_model"
	StepPlasticTypeInput   session.Step = "plastic_type_input"
	StepCustomPlasticType  session.Step = "custom_plastic_type"
	StepIssueDescription   session.Step = "issue_description"
	StepMediaUpload        session.Step = "media_upload"
	StepConfirmation       session.Step = "confirmation"
)

const errStreakThreshold = 3

// FileOpener downloads Telegram files; *tele.Bot satisfies it.
type FileOpener interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// Archiver persists dispatched requests. Optional.
type Archiver interface {
	SaveDispatched(ctx context.Context, userID int64, req *session.Request) error
}

// Options wires the engine's collaborators. Store, Users and Dispatcher
// are mandatory; the rest degrade gracefully when absent.
type Options struct {
	Store      *session.Store
	Users      *session.Users
	Dispatcher *dispatch.Dispatcher

	Storage   *media.Storage
	Reminders *reminder.Service
	Archive   Archiver

	// MaxFileSizeMB caps a single attachment; values below one mean 10.
	MaxFileSizeMB int
}

type stepFunc func(c tele.Context, userID int64) error

// Engine is safe for concurrent use: the bot runs every update in its
// own goroutine, so all session read-modify-write goes through a
// per-user mutex.
type Engine struct {
	store      *session.Store
	users      *session.Users
	dispatcher *dispatch.Dispatcher
	storage    *media.Storage
	reminders  *reminder.Service
	archive    Archiver

	maxFileBytes int64

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	files FileOpener

	steps map[session.Step]stepFunc
}

// New builds the engine. It panics on a missing mandatory collaborator
// since that is a wiring bug, not a runtime condition.
func New(opts Options) *Engine {
	if opts.Store == nil || opts.Users == nil || opts.Dispatcher == nil {
		panic("flow: store, users and dispatcher are required")
	}
	maxMB := opts.MaxFileSizeMB
	if maxMB < 1 {
		maxMB = 10
	}
	e := &Engine{
		store:        opts.Store,
		users:        opts.Users,
		dispatcher:   opts.Dispatcher,
		storage:      opts.Storage,
		reminders:    opts.Reminders,
		archive:      opts.Archive,
		maxFileBytes: int64(maxMB) * 1024 * 1024,
		locks:        make(map[int64]*sync.Mutex),
	}
	e.steps = map[session.Step]stepFunc{
		StepInitial:            e.stepInitial,
		StepOrderInput:         e.stepOrder,
		StepNameInput:          e.stepName,
		StepPhoneInput:         e.stepPhone,
		StepPrinterModelInput:  e.stepPrinterModel,
		StepCustomPrinterModel: e.stepCustomPrinterModel,
		StepPlasticTypeInput:   e.stepPlasticType,
		StepCustomPlasticType:  e.stepCustomPlasticType,
		StepIssueDescription:   e.stepDescription,
		StepMediaUpload:        e.stepMedia,
		StepConfirmation:       e.stepConfirmation,
	}
	return e
}

// SetFiles attaches the file downloader once the bot exists. Without it
// attachments are kept as Telegram file IDs.
func (e *Engine) SetFiles(f FileOpener) { e.files = f }

// Start greets the user and shows the entry keyboard. Bound to /start.
func (e *Engine) Start(c tele.Context) error {
	return c.Send(texts.Welcome, startKeyboard())
}

// Begin opens a fresh request dialog. Bound to /new_request and the
// entry keyboard button.
func (e *Engine) Begin(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	unlock := e.lockUser(sender.ID)
	defer unlock()
	return e.begin(c, sender.ID)
}

// Cancel drops the dialog state. Bound to /cancel.
func (e *Engine) Cancel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	unlock := e.lockUser(sender.ID)
	defer unlock()
	return e.cancel(c, sender.ID)
}

// Handle routes a non-command update to the current step's handler.
// Bound to text, contact, photo and video endpoints, plus document,
// voice and audio so unsupported attachments get a real answer.
func (e *Engine) Handle(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	userID := sender.ID
	unlock := e.lockUser(userID)
	defer unlock()

	e.users.GetOrCreate(userID, sender.FirstName, sender.LastName)

	step := e.store.Step(userID)
	fn, ok := e.steps[step]
	if !ok {
		fn = e.stepInitial
	}
	if err := fn(c, userID); err != nil {
		return e.fail(c, userID, step, err)
	}
	e.store.ResetErrStreak(userID)
	return nil
}

func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// fail is the unexpected-error path: apologize, count the streak and
// after three in a row ping the engineer.
func (e *Engine) fail(c tele.Context, userID int64, step session.Step, err error) error {
	streak := e.store.BumpErrStreak(userID)
	logger.Flow.Error("step handler failed",
		slog.String("event", "flow.step"),
		slog.String("step", string(step)),
		slog.Int64("user_id", userID),
		slog.Int("err_streak", streak),
		slog.String("err", err.Error()),
	)
	_ = tghelpers.SendText(c, texts.GenericError)
	if streak >= errStreakThreshold {
		e.dispatcher.NotifyErrStreak(userID)
		e.store.ResetErrStreak(userID)
	}
	return nil
}

func (e *Engine) begin(c tele.Context, userID int64) error {
	e.store.Clear(userID)
	e.store.GetOrCreate(userID)
	e.store.SetStep(userID, StepOrderInput)
	if e.reminders != nil {
		e.reminders.Schedule(userID)
	}
	logger.Flow.Info("dialog started",
		slog.String("event", "flow.begin"),
		slog.Int64("user_id", userID),
	)
	if err := c.Send(texts.BreakdownStart, removeKeyboard()); err != nil {
		return err
	}
	return c.Send(texts.RequestOrder)
}

func (e *Engine) cancel(c tele.Context, userID int64) error {
	e.store.Clear(userID)
	if e.reminders != nil {
		e.reminders.Cancel(userID)
	}
	logger.Flow.Info("dialog cancelled",
		slog.String("event", "flow.cancel"),
		slog.Int64("user_id", userID),
	)
	return c.Send(texts.Cancelled, startKeyboard())
}

func (e *Engine) stepInitial(c tele.Context, userID int64) error {
	if strings.TrimSpace(c.Text()) == texts.BtnBreakdown {
		return e.begin(c, userID)
	}
	return c.Send(texts.Welcome, startKeyboard())
}

func (e *Engine) stepOrder(c tele.Context, userID int64) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send(texts.RequestOrder)
	}
	if strings.EqualFold(text, texts.NoOrderSentinel) {
		e.store.SetOrderNumber(userID, nil)
		if err := c.Send(texts.AckNoOrder); err != nil {
			return err
		}
	} else {
		e.store.SetOrderNumber(userID, &text)
		if err := c.Send(fmt.Sprintf(texts.AckOrder, text)); err != nil {
			return err
		}
	}
	e.store.SetStep(userID, StepNameInput)
	return c.Send(texts.RequestName, nameKeyboard())
}

func (e *Engine) stepName(c tele.Context, userID int64) error {
	text := strings.TrimSpace(c.Text())
	if text == texts.BtnProfileName {
		sender := c.Sender()
		profile := e.users.GetOrCreate(userID, sender.FirstName, sender.LastName)
		name := profile.FullName()
		if name == "" {
			return c.Send(texts.ErrName, nameKeyboard())
		}
		e.store.SetFullName(userID, name)
		if err := c.Send(fmt.Sprintf(texts.AckProfileName, name)); err != nil {
			return err
		}
		return e.toPhone(c, userID)
	}

	name, err := validate.FullName(text)
	if verr := asValidation(err); verr != "" {
		return c.Send(verr, nameKeyboard())
	}
	if err != nil {
		return err
	}
	e.store.SetFullName(userID, name)
	return e.toPhone(c, userID)
}

func (e *Engine) toPhone(c tele.Context, userID int64) error {
	e.store.SetStep(userID, StepPhoneInput)
	return c.Send(texts.RequestPhone, phoneKeyboard())
}

func (e *Engine) stepPhone(c tele.Context, userID int64) error {
	raw := strings.TrimSpace(c.Text())
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		// Contact cards carry the number without the plus sign.
		raw = msg.Contact.PhoneNumber
		if !strings.HasPrefix(raw, "+") {
			raw = "+" + raw
		}
	}

	phone, err := validate.Phone(raw)
	if verr := asValidation(err); verr != "" {
		return c.Send(verr, phoneKeyboard())
	}
	if err != nil {
		return err
	}
	e.store.SetPhoneNumber(userID, phone)
	if err := c.Send(fmt.Sprintf(texts.AckPhone, phone)); err != nil {
		return err
	}
	e.store.SetStep(userID, StepPrinterModelInput)
	return c.Send(texts.RequestPrinterModel, modelKeyboard())
}

func (e *Engine) stepPrinterModel(c tele.Context, userID int64) error {
	choice, err := validate.PrinterModel(strings.TrimSpace(c.Text()))
	if verr := asValidation(err); verr != "" {
		return c.Send(verr, modelKeyboard())
	}
	if err != nil {
		return err
	}
	switch choice {
	case texts.BtnSkip:
		// Model stays empty and is omitted from the summary.
	case texts.BtnOtherModel:
		e.store.SetStep(userID, StepCustomPrinterModel)
		return c.Send(texts.RequestCustomModel, removeKeyboard())
	default:
		e.store.SetPrinterModel(userID, choice)
	}
	return e.toPlastic(c, userID)
}

func (e *Engine) stepCustomPrinterModel(c tele.Context, userID int64) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send(texts.RequestCustomModel)
	}
	e.store.SetPrinterModel(userID, texts.BtnOtherModel+": "+text)
	return e.toPlastic(c, userID)
}

func (e *Engine) toPlastic(c tele.Context, userID int64) error {
	e.store.SetStep(userID, StepPlasticTypeInput)
	return c.Send(texts.RequestPlasticType, plasticKeyboard())
}

func (e *Engine) stepPlasticType(c tele.Context, userID int64) error {
	choice, err := validate.PlasticType(strings.TrimSpace(c.Text()))
	if verr := asValidation(err); verr != "" {
		return c.Send(verr, plasticKeyboard())
	}
	if err != nil {
		return err
	}
	switch choice {
	case texts.BtnPlasticSkip:
		e.store.SetPlastic(userID, texts.PlasticNotSpecified, "")
	case texts.BtnPlasticOther:
		e.store.SetStep(userID, StepCustomPlasticType)
		return c.Send(texts.RequestCustomType, removeKeyboard())
	default:
		e.store.SetPlastic(userID, choice, "")
	}
	return e.toDescription(c, userID)
}

func (e *Engine) stepCustomPlasticType(c tele.Context, userID int64) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send(texts.RequestCustomType)
	}
	e.store.SetPlastic(userID, text, "")
	return e.toDescription(c, userID)
}

func (e *Engine) toDescription(c tele.Context, userID int64) error {
	e.store.SetStep(userID, StepIssueDescription)
	return c.Send(texts.RequestDescription, removeKeyboard())
}

func (e *Engine) stepDescription(c tele.Context, userID int64) error {
	description, err := validate.Description(c.Text())
	if verr := asValidation(err); verr != "" {
		return c.Send(verr)
	}
	if err != nil {
		return err
	}
	e.store.SetDescription(userID, description)
	e.store.SetStep(userID, StepMediaUpload)
	return c.Send(fmt.Sprintf(texts.RequestMedia, e.store.MaxMedia()), mediaKeyboard())
}

func (e *Engine) stepMedia(c tele.Context, userID int64) error {
	msg := c.Message()
	switch {
	case msg != nil && msg.Photo != nil:
		return e.acceptMedia(c, userID, &msg.Photo.File, media.KindPhoto, "")
	case msg != nil && msg.Video != nil:
		return e.acceptMedia(c, userID, &msg.Video.File, media.KindVideo, msg.Video.MIME)
	case strings.TrimSpace(c.Text()) == texts.BtnNext:
		return e.toConfirmation(c, userID)
	default:
		return c.Send(texts.ErrMediaKind, mediaKeyboard())
	}
}

func (e *Engine) acceptMedia(c tele.Context, userID int64, file *tele.File, kind media.Kind, mime string) error {
	if kind == media.KindVideo && mime != "" && mime != "video/mp4" {
		return c.Send(texts.ErrMediaKind, mediaKeyboard())
	}
	if file.FileSize > e.maxFileBytes {
		return c.Send(fmt.Sprintf(texts.ErrMediaSize, e.maxFileBytes/(1024*1024)), mediaKeyboard())
	}

	ref := e.mediaRef(userID, file, kind)

	var (
		count int
		err   error
	)
	if kind == media.KindVideo {
		count, err = e.store.AddVideo(userID, ref)
	} else {
		count, err = e.store.AddPhoto(userID, ref)
	}
	if errors.Is(err, session.ErrMediaLimit) {
		return c.Send(fmt.Sprintf(texts.ErrMediaLimit, e.store.MaxMedia()), mediaKeyboard())
	}
	if err != nil {
		return err
	}

	sess := e.store.GetOrCreate(userID)
	return c.Send(fmt.Sprintf(texts.AckMedia,
		count, e.store.MaxMedia(),
		len(sess.Request.PhotoFiles), len(sess.Request.VideoFiles),
	), mediaKeyboard())
}

// mediaRef downloads the file into local storage when configured and
// falls back to the Telegram file ID otherwise, including on download
// errors: a forwardable reference beats a lost attachment.
func (e *Engine) mediaRef(userID int64, file *tele.File, kind media.Kind) string {
	if e.storage == nil || e.files == nil {
		return file.FileID
	}
	rc, err := e.files.File(file)
	if err != nil {
		logger.Media.Warn("file download failed",
			slog.String("event", "media.download"),
			slog.Int64("user_id", userID),
			slog.String("file_id", file.FileID),
			slog.String("err", err.Error()),
		)
		return file.FileID
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		logger.Media.Warn("file read failed",
			slog.String("event", "media.download"),
			slog.Int64("user_id", userID),
			slog.String("file_id", file.FileID),
			slog.String("err", err.Error()),
		)
		return file.FileID
	}
	path, url, err := e.storage.Save(userID, kind, data)
	if err != nil {
		logger.Media.Warn("file store failed",
			slog.String("event", "media.store"),
			slog.Int64("user_id", userID),
			slog.String("file_id", file.FileID),
			slog.String("err", err.Error()),
		)
		return file.FileID
	}
	if url != "" {
		return url
	}
	return path
}

func (e *Engine) toConfirmation(c tele.Context, userID int64) error {
	sess := e.store.GetOrCreate(userID)
	e.store.SetStep(userID, StepConfirmation)
	return c.Send(fmt.Sprintf(texts.ConfirmPrompt, sess.Request.Summary()), confirmKeyboard())
}

func (e *Engine) stepConfirmation(c tele.Context, userID int64) error {
	switch strings.TrimSpace(c.Text()) {
	case texts.BtnConfirm:
		return e.confirm(c, userID)
	case texts.BtnCancel:
		return e.cancel(c, userID)
	default:
		return c.Send(texts.ErrConfirm, confirmKeyboard())
	}
}

func (e *Engine) confirm(c tele.Context, userID int64) error {
	e.store.Complete(userID)
	sess := e.store.GetOrCreate(userID)

	ctx, ok := tghelpers.ContextFrom(c)
	if !ok {
		ctx = context.Background()
	}
	if err := e.dispatcher.Dispatch(ctx, userID, &sess.Request); err != nil {
		return err
	}
	if e.archive != nil {
		if err := e.archive.SaveDispatched(ctx, userID, &sess.Request); err != nil {
			logger.Flow.Error("archive write failed",
				slog.String("event", "flow.archive"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
	}
	if e.reminders != nil {
		e.reminders.Cancel(userID)
	}
	e.store.Clear(userID)
	return c.Send(texts.Dispatched, startKeyboard())
}

// asValidation returns the user-facing message of a validation error
// and "" for nil or unexpected errors.
func asValidation(err error) string {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return ""
}
