package tracker

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGobSaveLoad(t *testing.T) {
	dir := t.TempDir()
	g := NewGob(dir)
	g.Track("losses/qf1_loss", 0.5, 64)
	g.Track("losses/qf1_loss", 0.25, 128)
	g.Track("train/success", 1, 128)

	if err := g.Save(); err != nil {
		t.Fatal(err)
	}
	data, err := LoadData(filepath.Join(dir, "losses_qf1_loss.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if data.Tag != "losses/qf1_loss" || data.Len() != 2 ||
		data.Steps[1] != 128 || data.Values[1] != 0.25 {
		t.Errorf("unexpected series %+v", data)
	}

	if _, err := LoadData(filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("expected error loading a missing file")
	}
}

func TestPlotSave(t *testing.T) {
	dir := t.TempDir()
	p := NewPlot(dir)
	for i, v := range []float64{-2, -1.8, -1.5, -1.6, -1.1} {
		p.Track("eval/return", v, (i+1)*1000)
	}
	p.Track("charts/SPS", 300, 1000)

	if err := p.Save(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"eval_return.png", "charts_SPS.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("%v is empty", name)
		}
	}
}

func TestMultiLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	g := NewGob(t.TempDir())
	m := Multi(NewLogger(logger, zerolog.InfoLevel), g)

	m.Track("losses/alpha", 0.2, 10)
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{`"tag":"losses/alpha"`, `"global_step":10`,
		`"component":"metrics"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q is missing %v", out, want)
		}
	}
	if s, ok := g.Series("losses/alpha"); !ok || s.Values[0] != 0.2 {
		t.Errorf("gob tracker did not receive the value: %+v", s)
	}
}
