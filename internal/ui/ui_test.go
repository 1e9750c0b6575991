package ui

import (
	"strings"
	"testing"
)

func TestRenderBasicStyles(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"pass", RenderPass("ok"), PassStyle.Render("ok")},
		{"warn", RenderWarn("careful"), WarnStyle.Render("careful")},
		{"fail", RenderFail("boom"), FailStyle.Render("boom")},
		{"muted", RenderMuted("note"), MutedStyle.Render("note")},
		{"accent", RenderAccent("info"), AccentStyle.Render("info")},
		{"bold", RenderBold("bold"), BoldStyle.Render("bold")},
		{"pass icon", RenderPassIcon(), PassStyle.Render(IconPass)},
		{"warn icon", RenderWarnIcon(), WarnStyle.Render(IconWarn)},
		{"fail icon", RenderFailIcon(), FailStyle.Render(IconFail)},
		{"info icon", RenderInfoIcon(), AccentStyle.Render(IconInfo)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("%s mismatch: got %q want %q", tc.name, tc.got, tc.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	cases := []struct {
		status string
		want   string
		icon   string
	}{
		{"completed", PassStyle.Render("completed"), RenderPassIcon()},
		{"partial", WarnStyle.Render("partial"), RenderWarnIcon()},
		{"failed", FailStyle.Render("failed"), RenderFailIcon()},
		{"running", MutedStyle.Render("running"), RenderInfoIcon()},
	}
	for _, tc := range cases {
		if got := RenderStatus(tc.status); got != tc.want {
			t.Errorf("RenderStatus(%q) = %q, want %q", tc.status, got, tc.want)
		}
		if got := StatusIcon(tc.status); got != tc.icon {
			t.Errorf("StatusIcon(%q) = %q, want %q", tc.status, got, tc.icon)
		}
	}
}

func TestRenderPriority(t *testing.T) {
	cases := []struct {
		priority string
		want     string
	}{
		{"Critical", PriorityCriticalStyle.Render("Critical")},
		{"High", PriorityHighStyle.Render("High")},
		{"Medium", PriorityMediumStyle.Render("Medium")},
		{"", MutedStyle.Render("-")},
		{"Someday", "Someday"},
	}
	for _, tc := range cases {
		if got := RenderPriority(tc.priority); got != tc.want {
			t.Errorf("RenderPriority(%q) = %q, want %q", tc.priority, got, tc.want)
		}
	}
}

func TestRenderMarkdown_NoTTY(t *testing.T) {
	out, err := RenderMarkdown("**Issue:** Login fails\n\n- one\n- two\n", 0, false)
	if err != nil {
		t.Fatalf("RenderMarkdown() failed: %v", err)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("notty output contains escape codes: %q", out)
	}
	for _, want := range []string{"Issue:", "Login fails", "one", "two"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
