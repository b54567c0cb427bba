package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config error", "N101", "Invalid backend URL", CategoryConfig},
		{"backend error", "N201", "Session rejected", CategoryBackend},
		{"cli error", "N300", "Missing session cookies", CategoryCLI},
		{"unknown error code", "N999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryCodesMatchCategoryRanges(t *testing.T) {
	ranges := map[byte]Category{'1': CategoryConfig, '2': CategoryBackend, '3': CategoryCLI}
	for _, code := range GetAllCodes() {
		tmpl, _ := GetTemplate(code)
		if len(code) != 4 || code[0] != 'N' {
			t.Errorf("code %q does not follow the Nxxx form", code)
			continue
		}
		if want := ranges[code[1]]; tmpl.Category != want {
			t.Errorf("code %s has category %q, want %q", code, tmpl.Category, want)
		}
		if tmpl.Message == "" || tmpl.Suggestion == "" {
			t.Errorf("code %s is missing a message or suggestion", code)
		}
	}
}

func TestNovaError_Error(t *testing.T) {
	if got, want := New("N200").Error(), "N200: Backend unreachable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err := New("N200").Wrap(io.ErrUnexpectedEOF)
	if got, want := err.Error(), "N200: Backend unreachable: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &NovaError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestNovaError_Unwrap(t *testing.T) {
	err := New("N100").Wrap(io.EOF)
	if !stderrors.Is(err, io.EOF) {
		t.Fatal("expected errors.Is to see the wrapped cause")
	}

	outer := fmt.Errorf("load: %w", err)
	var ne *NovaError
	if !stderrors.As(outer, &ne) || ne.Code != "N100" {
		t.Fatalf("errors.As = %v, want N100", ne)
	}
	if CodeOf(outer) != "N100" {
		t.Fatalf("CodeOf = %q, want N100", CodeOf(outer))
	}
	if CodeOf(io.EOF) != "" {
		t.Fatal("CodeOf on a plain error must be empty")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "N200") != nil {
		t.Fatal("FromError(nil) must be nil")
	}

	original := New("N101")
	if got := FromError(fmt.Errorf("ctx: %w", original), "N200"); got != original {
		t.Fatal("FromError must return an existing NovaError from the chain")
	}

	got := FromError(io.EOF, "N200")
	if got.Code != "N200" || !stderrors.Is(got, io.EOF) {
		t.Fatalf("FromError = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("N101").
		WithDetailf("backend.url %q is not http or https", "ftp://x").
		Wrap(io.EOF).
		Format()

	for _, want := range []string{
		"ERROR N101: Invalid backend URL",
		`backend.url "ftp://x" is not http or https`,
		"Cause: EOF",
		"Hint: Set backend.url",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() must not emit ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	if got := New("N104").FormatCompact(); got != "N104: Invalid refresh timeout" {
		t.Errorf("FormatCompact() = %q", got)
	}
	if got := New("N104").WithDetail("got -1s").FormatCompact(); got != "N104: Invalid refresh timeout (got -1s)" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	raw := New("N201").WithDetail("status 401").FormatJSON()

	var got map[string]string
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v\n%s", err, raw)
	}
	if got["code"] != "N201" || got["category"] != "backend" || got["detail"] != "status 401" {
		t.Fatalf("FormatJSON() = %v", got)
	}
	if _, ok := got["cause"]; ok {
		t.Fatal("cause must be omitted when nothing is wrapped")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q longer than 20", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text must wrap to nil")
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("serve: %w", New("N301")))
	if !strings.Contains(buf.String(), "ERROR N301: Server failed") {
		t.Errorf("Fprint(NovaError) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, io.EOF)
	if !strings.Contains(buf.String(), "ERROR: EOF") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}
}
