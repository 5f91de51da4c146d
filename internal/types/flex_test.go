package types_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/localnerve/myway-api/internal/types"
)

func TestParseFlexTime(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-05":                time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		"2024-01-05T10:30:00Z":      time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC),
		"2024-01-05T12:30:00+02:00": time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC),
		"2024-01-05T10:30:00.123Z":  time.Date(2024, 1, 5, 10, 30, 0, 123000000, time.UTC),
		"2024-01-05T10:30:00":       time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC),
		"2024-01-05 10:30:00":       time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, err := types.ParseFlexTime(input)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", input, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("%q: expected %v, got %v", input, want, got)
		}
	}

	if _, err := types.ParseFlexTime("05/01/2024"); err == nil {
		t.Errorf("Expected an unsupported format error")
	}
}

func TestFlexTimeInStruct(t *testing.T) {
	var body struct {
		Start *types.FlexTime `json:"start"`
		End   *types.FlexTime `json:"end"`
	}
	if err := json.Unmarshal([]byte(`{"start":"2024-01-01","end":null}`), &body); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if body.Start == nil || body.Start.Day() != 1 {
		t.Errorf("Unexpected start: %v", body.Start)
	}
	if body.End != nil {
		t.Errorf("A null end must stay nil")
	}

	if err := json.Unmarshal([]byte(`{"start":20240101}`), &body); err == nil {
		t.Errorf("Expected numbers to be rejected")
	}
}

func TestFlexUint64(t *testing.T) {
	cases := map[string]uint64{
		`42`:   42,
		`"42"`: 42,
		`""`:   0,
		`null`: 0,
	}
	for input, want := range cases {
		var got types.FlexUint64
		if err := json.Unmarshal([]byte(input), &got); err != nil {
			t.Errorf("%s: unexpected error: %v", input, err)
			continue
		}
		if got.Uint64() != want {
			t.Errorf("%s: expected %d, got %d", input, want, got)
		}
	}

	for _, bad := range []string{`"abc"`, `-1`, `true`} {
		var got types.FlexUint64
		if err := json.Unmarshal([]byte(bad), &got); err == nil {
			t.Errorf("%s: expected an error", bad)
		}
	}

	if types.FlexUint64(7).String() != "7" {
		t.Errorf("Unexpected String()")
	}
}

func TestPhotoInputForms(t *testing.T) {
	var photos types.FlexList[types.PhotoInput]
	input := `["data:image/png;base64,AAAA", "/api/photos/3", {"image":"AAAA","mimeType":"image/jpeg"}, {"photoUrl":"https://cdn.example.com/p.jpg"}]`
	if err := json.Unmarshal([]byte(input), &photos); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	list := photos.Slice()
	if len(list) != 4 {
		t.Fatalf("Expected 4 photos, got %d", len(list))
	}
	if list[0].Image == "" || list[0].IsReferenceOnly() {
		t.Errorf("A data URI is inline: %+v", list[0])
	}
	if list[1].Reference != "/api/photos/3" || !list[1].IsReferenceOnly() {
		t.Errorf("A path is a reference: %+v", list[1])
	}
	if list[2].MimeType != "image/jpeg" || list[2].IsReferenceOnly() {
		t.Errorf("Object form not decoded: %+v", list[2])
	}
	if !list[3].IsReferenceOnly() {
		t.Errorf("A photo URL is a reference: %+v", list[3])
	}

	var single types.FlexList[types.PhotoInput]
	if err := json.Unmarshal([]byte(`"AAAA"`), &single); err != nil || len(single) != 1 {
		t.Errorf("A single photo should become a list of one, got %v (%v)", single, err)
	}
	for _, empty := range []string{`""`, `null`, `[]`} {
		var none types.FlexList[types.PhotoInput]
		if err := json.Unmarshal([]byte(empty), &none); err != nil || len(none) != 0 {
			t.Errorf("%s should decode to no photos, got %v (%v)", empty, none, err)
		}
	}
	if !(types.PhotoInput{}).IsEmpty() {
		t.Errorf("Zero value should be empty")
	}
}

func TestCustomError(t *testing.T) {
	cause := errors.New("connection reset")
	err := types.InternalError("Erreur serveur", cause)

	if !errors.Is(err, cause) {
		t.Errorf("Expected the cause to be unwrapped")
	}
	if err.Code != http.StatusInternalServerError || err.Type != types.ErrTypeInternal {
		t.Errorf("Unexpected error: %+v", err)
	}

	var wrapped error = types.NotFoundError("Voyage introuvable", nil)
	var customErr *types.CustomError
	if !errors.As(wrapped, &customErr) || customErr.Code != http.StatusNotFound {
		t.Errorf("Expected a not found CustomError, got %v", wrapped)
	}

	fieldErrs := &types.FieldErrors{Errors: []types.FieldError{{Field: "email", Message: "is required"}}}
	if fieldErrs.Error() == "" {
		t.Errorf("FieldErrors should describe itself")
	}
}
