package export

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
)

func TestTraceCSVRoundTrip(t *testing.T) {
	tr := loop.Trace{
		Time:   []float64{0, 1.0 / 3, 2.0 / 3, math.Pi},
		Output: []float64{0, 0.1234567890123456, -1e-17, 42},
		Input:  []float64{1, 1, 1, 1},
	}

	var buf bytes.Buffer
	if err := WriteTraceCSV(&buf, tr); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadTraceCSV(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Len() != tr.Len() {
		t.Fatalf("expected %d samples, got %d", tr.Len(), got.Len())
	}
	for k := range tr.Time {
		if got.Time[k] != tr.Time[k] || got.Output[k] != tr.Output[k] || got.Input[k] != tr.Input[k] {
			t.Errorf("sample %d not bit-identical after round trip", k)
		}
	}
}

func TestReadTraceCSVRejectsMalformed(t *testing.T) {
	if _, err := ReadTraceCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ReadTraceCSV(strings.NewReader("time,output\n0,1\n")); err == nil {
		t.Error("expected error for missing column")
	}
	if _, err := ReadTraceCSV(strings.NewReader("time,output,input\n0,x,1\n")); err == nil {
		t.Error("expected error for non-numeric cell")
	}
}

func TestExportJSON(t *testing.T) {
	tr := sampleTrace()
	spec := loop.FirstOrderSpec(1, 0.5)
	gains := loop.Gains{Kp: 2, Ki: 1}
	cfg := loop.DefaultConfig()
	path := filepath.Join(t.TempDir(), "run.json")

	if err := ExportJSON(path, spec, gains, cfg, tr, metrics.Step(tr, 1, 0)); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded ExportData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Plant != "first_order" {
		t.Errorf("plant = %s, want first_order", decoded.Plant)
	}
	if decoded.Samples != tr.Len() || len(decoded.Outputs) != tr.Len() {
		t.Errorf("samples = %d with %d outputs, want %d", decoded.Samples, len(decoded.Outputs), tr.Len())
	}
	if decoded.Kp != 2 {
		t.Errorf("kp = %f, want 2", decoded.Kp)
	}
	if _, ok := decoded.Metrics["overshoot"]; !ok {
		t.Error("expected overshoot in metrics")
	}
}

func TestSavePNG(t *testing.T) {
	n := 100
	tr := loop.Trace{
		Time:   make([]float64, n),
		Output: make([]float64, n),
		Input:  make([]float64, n),
		Mode:   loop.Servo,
	}
	for k := 0; k < n; k++ {
		tt := float64(k) * 0.1
		tr.Time[k] = tt
		tr.Output[k] = 1 - math.Exp(-tt)*math.Cos(2*tt)
		tr.Input[k] = 1
	}

	path := filepath.Join(t.TempDir(), "step.png")
	if err := SavePNG(path, tr, 1.0, "Step Response"); err != nil {
		t.Fatalf("save png failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Error("png file is empty")
	}

	if err := SavePNG(filepath.Join(t.TempDir(), "empty.png"), loop.Trace{}, 1, "x"); err == nil {
		t.Error("expected error for empty trace")
	}
}

func TestSaveComparePNG(t *testing.T) {
	a := sampleTrace()
	b := sampleTrace()
	for k := range b.Output {
		b.Output[k] *= 0.8
	}

	path := filepath.Join(t.TempDir(), "compare.png")
	if err := SaveComparePNG(path, []loop.Trace{a, b}, []string{"kp=2", "kp=1"}, 1.0, "Comparison"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty png, err=%v", err)
	}

	if err := SaveComparePNG(path, []loop.Trace{a}, []string{"one", "two"}, 1, "x"); err == nil {
		t.Error("expected error for label mismatch")
	}
}
