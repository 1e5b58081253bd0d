package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/druk3d/servicebot/bot/texts"
)

// Request is the service-request aggregate collected over the dialog.
// A nil OrderNumber means the customer did not buy from us; an empty
// string field means "not collected yet".
type Request struct {
	OrderNumber      *string
	FullName         string
	PhoneNumber      string
	PrinterModel     string
	PlasticType      string
	PlasticBrand     string
	IssueDescription string

	PhotoFiles []string
	VideoFiles []string

	StartedAt   time.Time
	CompletedAt time.Time
}

// Complete reports whether every mandatory field has been collected.
func (r *Request) Complete() bool {
	return r.FullName != "" && r.PhoneNumber != "" && r.IssueDescription != ""
}

// MediaCount returns the combined number of attached photos and videos.
func (r *Request) MediaCount() int {
	return len(r.PhotoFiles) + len(r.VideoFiles)
}

// Summary renders the deterministic engineer-facing block. Optional absent
// fields are omitted entirely; media are summarized by count.
func (r *Request) Summary() string {
	var b strings.Builder
	b.WriteString(texts.SummaryHeader)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf(texts.SummaryTime, kyivNow().Format("2006-01-02 15:04:05")))
	b.WriteString("\n\n")

	if r.FullName != "" {
		b.WriteString(fmt.Sprintf(texts.SummaryClient, r.FullName))
		b.WriteByte('\n')
	}
	if r.PhoneNumber != "" {
		b.WriteString(fmt.Sprintf(texts.SummaryPhone, r.PhoneNumber))
		b.WriteByte('\n')
	}
	if r.OrderNumber == nil {
		b.WriteString(texts.SummaryNoOrder)
		b.WriteByte('\n')
	} else if *r.OrderNumber != "" {
		b.WriteString(fmt.Sprintf(texts.SummaryOrder, *r.OrderNumber))
		b.WriteByte('\n')
	}

	if r.PrinterModel != "" {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf(texts.SummaryPrinter, r.PrinterModel))
		b.WriteByte('\n')
	}
	if plastic := r.plasticLine(); plastic != "" {
		b.WriteString(fmt.Sprintf(texts.SummaryPlastic, plastic))
		b.WriteByte('\n')
	}

	if r.IssueDescription != "" {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf(texts.SummaryDescription, r.IssueDescription))
		b.WriteByte('\n')
	}

	if r.MediaCount() > 0 {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf(texts.SummaryMedia, len(r.PhotoFiles), len(r.VideoFiles)))
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), "\n")
}

func (r *Request) plasticLine() string {
	switch {
	case r.PlasticType == "" && r.PlasticBrand == "":
		return ""
	case r.PlasticBrand == "":
		return r.PlasticType
	case r.PlasticType == "":
		return r.PlasticBrand
	default:
		return r.PlasticType + " (" + r.PlasticBrand + ")"
	}
}

func kyivNow() time.Time {
	if loc, err := time.LoadLocation("Europe/Kyiv"); err == nil {
		return time.Now().In(loc)
	}
	return time.Now()
}
