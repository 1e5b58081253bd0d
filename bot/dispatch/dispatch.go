// Package dispatch forwards a confirmed service request to the engineer.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/druk3d/servicebot/bot/session"
	"github.com/druk3d/servicebot/bot/texts"
	"github.com/druk3d/servicebot/core/logger"
)

// albumLimit is the transport cap on items per sendMediaGroup call.
const albumLimit = 10

// Sender is the outbound surface of tele.Bot used by the dispatcher.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
}

// Dispatcher sends confirmed requests to a single fixed engineer chat.
type Dispatcher struct {
	bot      Sender
	engineer tele.ChatID
}

// New creates a dispatcher bound to the engineer chat id.
func New(bot Sender, engineerID int64) *Dispatcher {
	return &Dispatcher{bot: bot, engineer: tele.ChatID(engineerID)}
}

// EngineerID returns the configured engineer chat id.
func (d *Dispatcher) EngineerID() int64 { return int64(d.engineer) }

// Dispatch renders the summary and sends it to the engineer, followed by
// photos batched into albums and videos sent one by one. Media failures
// are logged and skipped; only a failed summary send fails the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, req *session.Request) error {
	summary := req.Summary()
	if _, err := d.bot.Send(d.engineer, summary); err != nil {
		logger.Dispatch.Error("summary send failed",
			slog.String("event", "dispatch.summary"),
			slog.Int64("user_id", userID),
			slog.Int64("engineer_id", int64(d.engineer)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("dispatch summary: %w", err)
	}

	d.sendPhotos(ctx, userID, req.PhotoFiles)
	d.sendVideos(ctx, userID, req.VideoFiles)

	logger.Dispatch.Info("request dispatched",
		slog.String("event", "dispatch.done"),
		slog.Int64("user_id", userID),
		slog.Int64("engineer_id", int64(d.engineer)),
		slog.Int("photos", len(req.PhotoFiles)),
		slog.Int("videos", len(req.VideoFiles)),
	)
	return nil
}

// NotifyErrStreak best-effort warns the engineer about a user stuck on
// repeated handler errors.
func (d *Dispatcher) NotifyErrStreak(userID int64) {
	if _, err := d.bot.Send(d.engineer, fmt.Sprintf(texts.EngineerErrStreak, userID)); err != nil {
		logger.Dispatch.Warn("err-streak notice failed",
			slog.String("event", "dispatch.err_streak"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (d *Dispatcher) sendPhotos(ctx context.Context, userID int64, refs []string) {
	for start := 0; start < len(refs); start += albumLimit {
		end := start + albumLimit
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]

		album := make(tele.Album, 0, len(batch))
		for i, ref := range batch {
			photo := &tele.Photo{File: fileFromRef(ref)}
			if start == 0 && i == 0 {
				photo.Caption = texts.PhotosCaption
			}
			album = append(album, photo)
		}
		if _, err := d.bot.SendAlbum(d.engineer, album); err != nil {
			logger.Dispatch.Warn("photo album skipped",
				slog.String("event", "dispatch.album"),
				slog.Int64("user_id", userID),
				slog.Int("count", len(batch)),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (d *Dispatcher) sendVideos(ctx context.Context, userID int64, refs []string) {
	for _, ref := range refs {
		if _, err := d.bot.Send(d.engineer, &tele.Video{File: fileFromRef(ref)}); err != nil {
			logger.Dispatch.Warn("video skipped",
				slog.String("event", "dispatch.video"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
	}
}

// fileFromRef treats http(s) references as remote files and everything
// else as opaque Telegram file ids.
func fileFromRef(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.File{FileID: ref}
}
