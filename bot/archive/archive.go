// Package archive writes dispatched service requests to postgres.
// It is bookkeeping of what was sent to the engineer, not session
// persistence: nothing is ever read back into the dialog.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/druk3d/servicebot/bot/session"
	"github.com/druk3d/servicebot/core/logger"
)

// Repo is the write-only archive of dispatched requests.
type Repo struct {
	db *sqlx.DB
}

// NewRepo wraps an open database handle.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

type record struct {
	UserID           int64     `db:"user_id"`
	OrderNumber      *string   `db:"order_number"`
	FullName         string    `db:"full_name"`
	PhoneNumber      string    `db:"phone_number"`
	PrinterModel     string    `db:"printer_model"`
	PlasticType      string    `db:"plastic_type"`
	PlasticBrand     string    `db:"plastic_brand"`
	IssueDescription string    `db:"issue_description"`
	PhotoRefs        string    `db:"photo_refs"`
	VideoRefs        string    `db:"video_refs"`
	StartedAt        time.Time `db:"started_at"`
	DispatchedAt     time.Time `db:"dispatched_at"`
}

const insertQuery = `
INSERT INTO service_requests (
	user_id, order_number, full_name, phone_number,
	printer_model, plastic_type, plastic_brand, issue_description,
	photo_refs, video_refs, started_at, dispatched_at
) VALUES (
	:user_id, :order_number, :full_name, :phone_number,
	:printer_model, :plastic_type, :plastic_brand, :issue_description,
	:photo_refs, :video_refs, :started_at, :dispatched_at
)`

// SaveDispatched appends one dispatched request to the archive.
func (r *Repo) SaveDispatched(ctx context.Context, userID int64, req *session.Request) error {
	dispatchedAt := req.CompletedAt
	if dispatchedAt.IsZero() {
		dispatchedAt = time.Now()
	}
	rec := record{
		UserID:           userID,
		OrderNumber:      req.OrderNumber,
		FullName:         req.FullName,
		PhoneNumber:      req.PhoneNumber,
		PrinterModel:     req.PrinterModel,
		PlasticType:      req.PlasticType,
		PlasticBrand:     req.PlasticBrand,
		IssueDescription: req.IssueDescription,
		PhotoRefs:        strings.Join(req.PhotoFiles, "\n"),
		VideoRefs:        strings.Join(req.VideoFiles, "\n"),
		StartedAt:        req.StartedAt,
		DispatchedAt:     dispatchedAt,
	}

	start := time.Now()
	if _, err := r.db.NamedExecContext(ctx, insertQuery, rec); err != nil {
		logger.DB.Error("archive insert failed",
			slog.String("event", "archive.insert"),
			slog.Int64("user_id", userID),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("archive insert: %w", err)
	}
	logger.DB.Debug("request archived",
		slog.String("event", "archive.insert"),
		slog.Int64("user_id", userID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
