package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleMessageAppendsLine(t *testing.T) {
	rc := ReviewConsumer{LogDir: filepath.Join(t.TempDir(), "logs")}
	for _, ev := range []ReviewChangedEvent{
		{Action: ActionCreated, ReviewID: 1, TourID: 5, UserID: 9, Rating: 4, RatingsQuantity: 1, RatingsAverage: 4},
		{Action: ActionDeleted, ReviewID: 1, TourID: 5, UserID: 9, Rating: 4, RatingsQuantity: 0, RatingsAverage: 4.5},
	} {
		body, err := json.Marshal(ev)
		if err != nil {
			t.Fatal(err)
		}
		if err := rc.HandleMessage(body); err != nil {
			t.Fatalf("HandleMessage: %v", err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(rc.LogDir, "reviews.log"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), raw)
	}
	if !strings.Contains(lines[0], "Review created") || !strings.Contains(lines[0], "ratings_average=4.0") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Review deleted") || !strings.Contains(lines[1], "ratings_quantity=0") {
		t.Errorf("line 2 = %q", lines[1])
	}
}

func TestHandleMessageRejectsBadEvents(t *testing.T) {
	rc := ReviewConsumer{LogDir: t.TempDir()}
	for _, body := range []string{`not json`, `{"action":"created"}`, `{"tour_id":3}`} {
		if err := rc.HandleMessage([]byte(body)); err == nil {
			t.Errorf("HandleMessage(%s) succeeded", body)
		}
	}
	if _, err := os.Stat(filepath.Join(rc.LogDir, "reviews.log")); !os.IsNotExist(err) {
		t.Error("rejected events were logged")
	}
}
