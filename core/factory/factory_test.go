package factory

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type sample struct{ A int }

type sampleConf struct {
	A int `json:"a"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %d", inst.A)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"sqlite", "jsonl"} {
		if err := reg.Register(n, func(map[string]any) (int, error) { return 0, nil }); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "jsonl" || names[1] != "sqlite" {
		t.Fatalf("unexpected names %v", names)
	}
	if !reg.Has("jsonl") || reg.Has("csv") {
		t.Fatal("unexpected Has result")
	}
}

func TestDecode_WeaklyTyped(t *testing.T) {
	var c struct {
		MaxSize int     `json:"max_size"`
		Rate    float64 `json:"rate"`
		Timeout string  `json:"timeout"`
	}
	err := Decode(map[string]any{"max_size": "10", "rate": "0.5", "timeout": "5s"}, &c)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.MaxSize != 10 || c.Rate != 0.5 || c.Timeout != "5s" {
		t.Fatalf("unexpected decode result %+v", c)
	}
}

func TestDecode_DurationAndList(t *testing.T) {
	var c struct {
		Timeout time.Duration `json:"timeout"`
		Days    []string      `json:"days"`
	}
	if err := Decode(map[string]any{"timeout": "1m30s", "days": "mon,tue"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Timeout != 90*time.Second || len(c.Days) != 2 || c.Days[1] != "tue" {
		t.Fatalf("unexpected decode result %+v", c)
	}
}

func TestRegistry_CreateWrapsFactoryError(t *testing.T) {
	reg := NewRegistry[int]()
	boom := errors.New("boom")
	_ = reg.Register("influx", func(map[string]any) (int, error) { return 0, boom })
	_, err := reg.Create(ModuleConfig{Type: "influx"})
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "influx: ") {
		t.Fatalf("unexpected error %v", err)
	}
}
