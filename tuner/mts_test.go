package tuner_test

import (
	"reflect"
	"testing"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
	"github.com/calinburloiu/microtonalist-sub001/tuner"
)

func TestMts1ByteStandardTuning(t *testing.T) {
	g, err := tuner.NewMtsMessageGenerator(tuner.MtsOctave1ByteForm, false)
	if err != nil {
		t.Fatalf("creating generator: %v", err)
	}
	got := []byte(g.Generate(microtonalist.StandardTuning()))
	want := []byte{
		0xF0, 0x7E, 0x7F, 0x08, 0x08, 0x03, 0x7F, 0x7F,
		0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40,
		0xF7,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("1-byte message:\ngot  % X\nwant % X", got, want)
	}
}

func TestMts2ByteMessage(t *testing.T) {
	g, err := tuner.NewMtsMessageGenerator(tuner.MtsOctave2ByteForm, true)
	if err != nil {
		t.Fatalf("creating generator: %v", err)
	}
	tuning := microtonalist.StandardTuning()
	tuning.Deviations[0] = 50    // +50 cents is 4096 above center
	tuning.Deviations[1] = -100  // clamps exactly to the bottom of the range
	tuning.Deviations[2] = 12.5  // 1024 above center
	got := []byte(g.Generate(tuning))
	if len(got) != 33 {
		t.Fatalf("2-byte message length %d, want 33", len(got))
	}
	wantHeader := []byte{0xF0, 0x7F, 0x7F, 0x08, 0x09, 0x03, 0x7F, 0x7F}
	if !reflect.DeepEqual(got[:8], wantHeader) {
		t.Errorf("header % X, want % X", got[:8], wantHeader)
	}
	checks := []struct {
		pc       int
		msb, lsb byte
	}{
		{0, 0x60, 0x00},
		{1, 0x00, 0x00},
		{2, 0x48, 0x00},
		{3, 0x40, 0x00},
	}
	for _, c := range checks {
		msb, lsb := got[8+2*c.pc], got[9+2*c.pc]
		if msb != c.msb || lsb != c.lsb {
			t.Errorf("pitch class %d encoded as %02X %02X, want %02X %02X", c.pc, msb, lsb, c.msb, c.lsb)
		}
	}
	if got[32] != 0xF7 {
		t.Errorf("terminator %02X, want F7", got[32])
	}
}

func TestMts1ByteClamping(t *testing.T) {
	g, _ := tuner.NewMtsMessageGenerator(tuner.MtsOctave1ByteForm, false)
	tuning := microtonalist.StandardTuning()
	tuning.Deviations[0] = 100
	tuning.Deviations[1] = -100
	got := []byte(g.Generate(tuning))
	if got[8] != 127 {
		t.Errorf("+100 cents should clamp to 127, got %d", got[8])
	}
	if got[9] != 0 {
		t.Errorf("-100 cents should clamp to 0, got %d", got[9])
	}
}

func TestMtsInvalidForm(t *testing.T) {
	if _, err := tuner.NewMtsMessageGenerator(tuner.MtsForm(0x0A), false); err == nil {
		t.Fatal("form 0x0A should be rejected")
	}
}
