package notify

import (
	"errors"
	"testing"

	"github.com/theirongolddev/fintrack/internal/apperr"
)

func TestFromError(t *testing.T) {
	n := FromError(apperr.WithMessage(apperr.ErrValidation, "Please fill in all fields"))
	if n.Title != "Validation Error" || n.Severity != apperr.SeverityWarning {
		t.Errorf("unexpected notice: %+v", n)
	}

	n = FromError(errors.New("raw failure"))
	if n.Severity != apperr.SeverityError {
		t.Errorf("unclassified errors should be error severity, got %q", n.Severity)
	}
	if n.Message == "raw failure" {
		t.Error("internal error text leaked into the notice")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var n Notifier = &r
	n.Notify(Success("Budget saved"))
	n.Notify(Notice{Title: "x"})

	got := r.Notices()
	if len(got) != 2 || got[0].Message != "Budget saved" {
		t.Fatalf("Notices() = %+v", got)
	}
}
