package robovac

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		batch map[string]any
		want  Dialect
	}{
		{
			name:  "legacy keys only",
			batch: map[string]any{"2": true, "104": 87},
			want:  DialectLegacy,
		},
		{
			name:  "novel keys only",
			batch: map[string]any{"163": 87, "152": "AA=="},
			want:  DialectNovel,
		},
		{
			name:  "novel key wins over legacy keys",
			batch: map[string]any{"2": true, "163": 87},
			want:  DialectNovel,
		},
		{
			name:  "empty batch defaults to novel",
			batch: map[string]any{},
			want:  DialectNovel,
		},
		{
			name:  "nil batch defaults to novel",
			batch: nil,
			want:  DialectNovel,
		},
		{
			name:  "unknown keys default to legacy",
			batch: map[string]any{"999": 1},
			want:  DialectLegacy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.batch); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_SharedCodeFansOut(t *testing.T) {
	// Code 153 carries both the work mode and the work status.
	got := Normalize(map[string]any{"153": "payload"}, DialectNovel)

	want := map[Field]any{
		FieldWorkMode:   "payload",
		FieldWorkStatus: "payload",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalize_PerDialect(t *testing.T) {
	batch := map[string]any{"104": 87}

	legacy := Normalize(batch, DialectLegacy)
	if legacy[FieldBatteryLevel] != 87 {
		t.Errorf("legacy battery = %v, want 87", legacy[FieldBatteryLevel])
	}

	// The same key means nothing in the novel dialect.
	novel := Normalize(batch, DialectNovel)
	if len(novel) != 0 {
		t.Errorf("novel normalize of legacy key = %v, want empty", novel)
	}
}

func TestNormalize_IgnoresUnknownKeys(t *testing.T) {
	got := Normalize(map[string]any{"163": 80, "999": "x"}, DialectNovel)
	if len(got) != 1 || got[FieldBatteryLevel] != 80 {
		t.Errorf("Normalize() = %v, want only battery", got)
	}
}

func TestWireCode(t *testing.T) {
	tests := []struct {
		dialect Dialect
		field   Field
		want    string
		ok      bool
	}{
		{DialectNovel, FieldPlayPause, "152", true},
		{DialectNovel, FieldGoHome, "173", true},
		{DialectLegacy, FieldPlayPause, "2", true},
		{DialectLegacy, FieldBatteryLevel, "104", true},
		{DialectLegacy, FieldCleaningParameters, "", false},
	}

	for _, tt := range tests {
		code, ok := WireCode(tt.dialect, tt.field)
		if code != tt.want || ok != tt.ok {
			t.Errorf("WireCode(%v, %v) = %q, %v, want %q, %v",
				tt.dialect, tt.field, code, ok, tt.want, tt.ok)
		}
	}
}
