package checkpointer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

type counter struct {
	value int
}

func (c *counter) GobEncode() ([]byte, error) {
	return []byte(fmt.Sprint(c.value)), nil
}

func (c *counter) GobDecode(in []byte) error {
	_, err := fmt.Sscan(string(in), &c.value)
	return err
}

func TestNStep(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	object := &counter{}
	check, err := NewNStep(100, 64, object, dir)
	if err != nil {
		t.Fatal(err)
	}

	for step := 64; step <= 320; step += 64 {
		object.value = step
		if err := check.Checkpoint(step); err != nil {
			t.Fatal(err)
		}
	}
	object.value = 999
	if err := check.Save(333); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"128.bin", "256.bin", "320.bin", "333.bin"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("want checkpoints %v have %v", want, names)
	}

	loaded := &counter{}
	if err := Load(filepath.Join(dir, "256.bin"), loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.value != 256 {
		t.Errorf("want 256 have %v", loaded.value)
	}

	if _, err := NewNStep(0, 64, object, dir); err == nil {
		t.Error("expected error for non-positive interval")
	}
	if _, err := NewNStep(100, 0, object, dir); err == nil {
		t.Error("expected error for non-positive stride")
	}
}

func TestNStepLateStart(t *testing.T) {
	dir := t.TempDir()
	check, err := NewNStep(100, 10, &counter{}, dir)
	if err != nil {
		t.Fatal(err)
	}

	// The first call comes long after step 100 was passed
	if check.Due(130) {
		t.Error("no multiple of 100 lies in (120, 130]")
	}
	if err := check.Checkpoint(130); err != nil {
		t.Fatal(err)
	}
	if !check.Due(200) || check.Due(210) {
		t.Error("want a checkpoint due at 200 only")
	}
	if err := check.Checkpoint(200); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "200.bin" {
		t.Errorf("want only 200.bin have %v", entries)
	}
}
