package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/druk3d/servicebot/bot/session"
)

type fakeSender struct {
	sent     []interface{}
	albums   []tele.Album
	failSend func(what interface{}) error
	failAlb  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.failSend != nil {
		if err := f.failSend(what); err != nil {
			return nil, err
		}
	}
	f.sent = append(f.sent, what)
	return &tele.Message{}, nil
}

func (f *fakeSender) SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error) {
	if f.failAlb != nil {
		return nil, f.failAlb
	}
	f.albums = append(f.albums, a)
	return nil, nil
}

func request(photos, videos int) *session.Request {
	req := &session.Request{
		FullName:         "Іван Франко",
		PhoneNumber:      "+380501234567",
		IssueDescription: "сопло забивається кожні пів години",
	}
	for i := 0; i < photos; i++ {
		req.PhotoFiles = append(req.PhotoFiles, fmt.Sprintf("photo-%d", i))
	}
	for i := 0; i < videos; i++ {
		req.VideoFiles = append(req.VideoFiles, fmt.Sprintf("video-%d", i))
	}
	return req
}

func TestDispatchBatchesPhotos(t *testing.T) {
	f := &fakeSender{}
	d := New(f, 777)

	if err := d.Dispatch(context.Background(), 1, request(13, 2)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(f.albums) != 2 {
		t.Fatalf("albums = %d, want 2 (10 + 3)", len(f.albums))
	}
	if len(f.albums[0]) != 10 || len(f.albums[1]) != 3 {
		t.Fatalf("album sizes = %d/%d, want 10/3", len(f.albums[0]), len(f.albums[1]))
	}

	// summary + 2 individual videos
	if len(f.sent) != 3 {
		t.Fatalf("individual sends = %d, want 3", len(f.sent))
	}
	summary, ok := f.sent[0].(string)
	if !ok || !strings.Contains(summary, "Іван Франко") {
		t.Fatalf("first send is not the summary: %#v", f.sent[0])
	}
	for _, v := range f.sent[1:] {
		if _, ok := v.(*tele.Video); !ok {
			t.Fatalf("expected video send, got %#v", v)
		}
	}
}

func TestDispatchToleratesMediaFailures(t *testing.T) {
	f := &fakeSender{
		failAlb: errors.New("album boom"),
		failSend: func(what interface{}) error {
			if _, ok := what.(*tele.Video); ok {
				return errors.New("video boom")
			}
			return nil
		},
	}
	d := New(f, 777)

	if err := d.Dispatch(context.Background(), 1, request(3, 1)); err != nil {
		t.Fatalf("Dispatch must tolerate media failures, got %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sends = %d, want just the summary", len(f.sent))
	}
}

func TestDispatchFailsOnSummaryError(t *testing.T) {
	f := &fakeSender{
		failSend: func(what interface{}) error {
			if _, ok := what.(string); ok {
				return errors.New("summary boom")
			}
			return nil
		},
	}
	d := New(f, 777)
	if err := d.Dispatch(context.Background(), 1, request(0, 0)); err == nil {
		t.Fatal("Dispatch must fail when the summary cannot be sent")
	}
}
