package x11

import (
	"errors"
	"image"
	"os"
	"strconv"
	"strings"
	"testing"

	"iconjack/internal/icon"
)

// fakeIdentity is an in-memory identityStore. Nil pointers model absent
// properties. Each fail* error, when set, is returned by the matching write.
type fakeIdentity struct {
	pid       *uint32
	classHint *ClassHint
	gtkAppID  *string
	startupID *string

	failSetPID       error
	failSetClassHint error
	failSetGTKAppID  error
	failSetStartupID error
}

func (f *fakeIdentity) PID() (uint32, bool, error) {
	if f.pid == nil {
		return 0, false, nil
	}
	return *f.pid, true, nil
}

func (f *fakeIdentity) SetPID(pid uint32) error {
	if f.failSetPID != nil {
		return f.failSetPID
	}
	f.pid = &pid
	return nil
}

func (f *fakeIdentity) ClassHint() (*ClassHint, error) {
	if f.classHint == nil {
		return nil, nil
	}
	hint := *f.classHint
	return &hint, nil
}

func (f *fakeIdentity) SetClassHint(hint ClassHint) error {
	if f.failSetClassHint != nil {
		return f.failSetClassHint
	}
	f.classHint = &hint
	return nil
}

func (f *fakeIdentity) DeleteClassHint() error {
	f.classHint = nil
	return nil
}

func (f *fakeIdentity) GTKApplicationID() (string, bool, error) {
	if f.gtkAppID == nil {
		return "", false, nil
	}
	return *f.gtkAppID, true, nil
}

func (f *fakeIdentity) SetGTKApplicationID(id string) error {
	if f.failSetGTKAppID != nil {
		return f.failSetGTKAppID
	}
	f.gtkAppID = &id
	return nil
}

func (f *fakeIdentity) DeleteGTKApplicationID() error {
	f.gtkAppID = nil
	return nil
}

func (f *fakeIdentity) StartupID() (string, bool, error) {
	if f.startupID == nil {
		return "", false, nil
	}
	return *f.startupID, true, nil
}

func (f *fakeIdentity) SetStartupID(id string) error {
	if f.failSetStartupID != nil {
		return f.failSetStartupID
	}
	f.startupID = &id
	return nil
}

func uptr(v uint32) *uint32 { return &v }
func sptr(s string) *string { return &s }

func populatedIdentity() *fakeIdentity {
	return &fakeIdentity{
		pid:       uptr(4242),
		classHint: &ClassHint{Instance: "xterm", Class: "XTerm"},
		gtkAppID:  sptr("org.gnome.Terminal"),
	}
}

func TestWithMaskedIdentityRestoresOnSuccess(t *testing.T) {
	f := populatedIdentity()

	wrote := false
	err := withMaskedIdentity(f, placeholderPID, true, func() error {
		wrote = true
		if f.pid == nil || *f.pid != placeholderPID {
			t.Errorf("pid during write = %v, want placeholder %d", f.pid, placeholderPID)
		}
		if f.classHint != nil {
			t.Errorf("class hint present during write: %+v", f.classHint)
		}
		if f.gtkAppID != nil {
			t.Errorf("gtk application id present during write: %q", *f.gtkAppID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("masked write: %v", err)
	}
	if !wrote {
		t.Fatal("write callback never ran")
	}

	if f.pid == nil || *f.pid != 4242 {
		t.Errorf("pid not restored, got %v", f.pid)
	}
	if f.classHint == nil || f.classHint.Instance != "xterm" || f.classHint.Class != "XTerm" {
		t.Errorf("class hint not restored, got %+v", f.classHint)
	}
	if f.gtkAppID == nil || *f.gtkAppID != "org.gnome.Terminal" {
		t.Errorf("gtk application id not restored, got %v", f.gtkAppID)
	}
	if f.startupID != nil {
		t.Errorf("absent startup id reappeared: %q", *f.startupID)
	}
}

func TestWithMaskedIdentityRestoresOnWriteFailure(t *testing.T) {
	f := populatedIdentity()
	boom := errors.New("icon write rejected")

	err := withMaskedIdentity(f, placeholderPID, true, func() error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the write error, got %v", err)
	}

	if f.pid == nil || *f.pid != 4242 {
		t.Errorf("pid not restored after failed write, got %v", f.pid)
	}
	if f.classHint == nil || f.classHint.Instance != "xterm" {
		t.Errorf("class hint not restored after failed write, got %+v", f.classHint)
	}
}

func TestWithMaskedIdentityRestoreFailureJoined(t *testing.T) {
	f := populatedIdentity()
	boom := errors.New("icon write rejected")
	restoreFail := errors.New("class hint write failed")

	err := withMaskedIdentity(f, placeholderPID, true, func() error {
		// Restores after this point must fail for the class hint only.
		f.failSetClassHint = restoreFail
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("primary error lost: %v", err)
	}
	if !errors.Is(err, restoreFail) {
		t.Fatalf("restore error not joined: %v", err)
	}

	// The other properties are still restored despite the class hint failure.
	if f.pid == nil || *f.pid != 4242 {
		t.Errorf("pid not restored, got %v", f.pid)
	}
	if f.gtkAppID == nil || *f.gtkAppID != "org.gnome.Terminal" {
		t.Errorf("gtk application id not restored, got %v", f.gtkAppID)
	}
}

func TestWithMaskedIdentityNoPIDRestore(t *testing.T) {
	f := populatedIdentity()
	const randomized = uint32(5_000_000)

	err := withMaskedIdentity(f, randomized, false, func() error { return nil })
	if err != nil {
		t.Fatalf("masked write: %v", err)
	}

	if f.pid == nil || *f.pid != randomized {
		t.Errorf("pid = %v, want the randomized value %d left in place", f.pid, randomized)
	}
	if f.classHint == nil || f.classHint.Instance != "xterm" {
		t.Errorf("class hint not restored, got %+v", f.classHint)
	}
}

func TestWithMaskedIdentityAbsentPropertiesStayAbsent(t *testing.T) {
	f := &fakeIdentity{}

	err := withMaskedIdentity(f, placeholderPID, true, func() error { return nil })
	if err != nil {
		t.Fatalf("masked write: %v", err)
	}

	if f.classHint != nil {
		t.Errorf("class hint appeared on a window that had none: %+v", f.classHint)
	}
	if f.gtkAppID != nil {
		t.Errorf("gtk application id appeared: %q", *f.gtkAppID)
	}
	if f.startupID != nil {
		t.Errorf("startup id appeared: %q", *f.startupID)
	}
}

func TestWithMaskedIdentityMaskFailureStillRestores(t *testing.T) {
	f := populatedIdentity()
	boom := errors.New("pid write failed")
	f.failSetPID = boom

	wrote := false
	err := withMaskedIdentity(f, placeholderPID, true, func() error {
		wrote = true
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the mask error, got %v", err)
	}
	if wrote {
		t.Fatal("write ran although masking failed")
	}
	if f.classHint == nil || f.classHint.Instance != "xterm" {
		t.Errorf("class hint not restored, got %+v", f.classHint)
	}
}

// TestMaskedIconWriteScenario runs the full property-level sequence an icon
// write performs, with the written words decoded back through the codec.
func TestMaskedIconWriteScenario(t *testing.T) {
	f := populatedIdentity()

	im := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(im.Pix); i += 4 {
		im.Pix[i] = 0xff   // r
		im.Pix[i+3] = 0xff // a
	}
	set := icon.Set{{W: 16, H: 16}: im}

	var stored []uint32
	err := withMaskedIdentity(f, placeholderPID, true, func() error {
		words, err := icon.Encode(set)
		if err != nil {
			return err
		}
		stored = words
		return nil
	})
	if err != nil {
		t.Fatalf("icon write: %v", err)
	}

	decoded, err := icon.Decode(stored)
	if err != nil {
		t.Fatalf("decode stored icon: %v", err)
	}
	got, ok := decoded[icon.Size{W: 16, H: 16}].(*image.NRGBA)
	if !ok {
		t.Fatalf("stored icon missing the 16x16 image: %v", decoded.Sizes())
	}
	if got.Pix[0] != 0xff || got.Pix[1] != 0 || got.Pix[2] != 0 || got.Pix[3] != 0xff {
		t.Fatalf("stored pixel = %v, want opaque red", got.Pix[:4])
	}

	if f.pid == nil || *f.pid != 4242 {
		t.Errorf("pid not restored, got %v", f.pid)
	}
	if f.classHint == nil || f.classHint.Class != "XTerm" {
		t.Errorf("class hint not restored, got %+v", f.classHint)
	}
}

func TestRandomUnusedPIDAboveKernelRange(t *testing.T) {
	maxPID := int64(1 << 22)
	if data, err := os.ReadFile("/proc/sys/kernel/pid_max"); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); err == nil {
			maxPID = v
		}
	}
	if maxPID >= int64(1<<31-1) {
		t.Skip("pid_max fills the 32-bit range; no unused pids exist")
	}
	for i := 0; i < 100; i++ {
		pid := randomUnusedPID()
		if int64(pid) <= maxPID {
			t.Fatalf("pid %d is inside the kernel's range (pid_max %d)", pid, maxPID)
		}
		if int64(pid) > int64(1<<31-1) {
			t.Fatalf("pid %d exceeds the legal 32-bit process id range", pid)
		}
	}
}
