package cron

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/output"
	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRuntime struct {
	submitted [][]string
}

func (r *fakeRuntime) RunCommands(_ context.Context, commands []string) (telegram.Result, error) {
	r.submitted = append(r.submitted, commands)
	return telegram.Result{OK: true, Description: "Ran commands"}, nil
}

func groupParams(groups map[string]any, g string) *config.Params {
	p := config.NewParams(map[string]any{
		"cron": map[string]any{"groups": groups},
	})
	if g != "" {
		p = p.With(map[string]string{"g": g})
	}
	return p
}

func TestParseGroups(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{"default"}},
		{" , , ", []string{"default"}},
		{"a,b", []string{"a", "b"}},
		{" a , b ,a", []string{"a", "b", "a"}},
	}

	for _, tt := range tests {
		if got := ParseGroups(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseGroups(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDispatcherMergesGroupsInOrder(t *testing.T) {
	rt := &fakeRuntime{}
	sink := output.NewSink(nil)
	d := NewDispatcher(rt, groupParams(map[string]any{
		"a": []any{"cmd1"},
		"b": []any{"cmd2", "cmd3"},
	}, "a,b"), sink, discardLogger())

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{"cmd1", "cmd2", "cmd3"}
	if len(rt.submitted) != 1 || !reflect.DeepEqual(rt.submitted[0], want) {
		t.Errorf("submitted = %v, want single call with %v", rt.submitted, want)
	}
}

func TestDispatcherDefaultsToDefaultGroup(t *testing.T) {
	rt := &fakeRuntime{}
	sink := output.NewSink(nil)
	d := NewDispatcher(rt, groupParams(map[string]any{
		"default": []any{"/cleanup"},
	}, ""), sink, discardLogger())

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(rt.submitted) != 1 || len(rt.submitted[0]) != 1 || rt.submitted[0][0] != "/cleanup" {
		t.Errorf("submitted = %v, want [[/cleanup]]", rt.submitted)
	}
}

func TestDispatcherUnknownGroupContributesNothing(t *testing.T) {
	rt := &fakeRuntime{}
	sink := output.NewSink(nil)
	d := NewDispatcher(rt, groupParams(map[string]any{
		"a": []any{"cmd1"},
	}, "a,missing"), sink, discardLogger())

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !reflect.DeepEqual(rt.submitted[0], []string{"cmd1"}) {
		t.Errorf("submitted = %v, want [cmd1]", rt.submitted[0])
	}

	if out := sink.Drain(); !strings.Contains(out, "Ran") {
		t.Errorf("output = %q, want runtime description", out)
	}
}
