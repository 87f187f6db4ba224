package ticket

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/domain"
)

func testInfo() Info {
	return Info{
		Payload:      GuestPayload(NewVerificationToken()),
		Track:        domain.TrackGuest,
		Name:         "Siti Rahma",
		Organization: "HIMA Informatika",
		Code:         "a1b2c3d4",
		StatusLabel:  StatusLabel(domain.PaymentPaid),
		Paid:         true,
		RegisteredAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func newTestGenerator(t *testing.T, outputDir string) *Generator {
	t.Helper()
	return NewGenerator(config.TicketConfig{
		OutputDir: outputDir,
		LogoPath:  filepath.Join(t.TempDir(), "missing-logo.png"),
		EventName: "MUSDA",
	}, zap.NewNop())
}

func TestQRCodePNGDecodes(t *testing.T) {
	g := newTestGenerator(t, "")

	data, err := g.QRCodePNG("MUSDA|abc123")
	if err != nil {
		t.Fatalf("QRCodePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode qr png: %v", err)
	}
	if img.Bounds().Dx() != qrImageSize {
		t.Errorf("qr width = %d, want %d", img.Bounds().Dx(), qrImageSize)
	}
}

func TestTemplatePNGSurvivesMissingAssets(t *testing.T) {
	// logo and font paths both point nowhere; the render must still
	// produce a decodable image
	g := newTestGenerator(t, "")

	data, err := g.TemplatePNG(testInfo())
	if err != nil {
		t.Fatalf("TemplatePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode template png: %v", err)
	}
	if img.Bounds().Dx() != templateWidth || img.Bounds().Dy() != templateHeight {
		t.Errorf("template size = %v, want %dx%d", img.Bounds(), templateWidth, templateHeight)
	}
}

func TestRenderWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	g := newTestGenerator(t, dir)

	art, err := g.Render(testInfo())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(art.QRPNG) == 0 {
		t.Error("QRPNG empty")
	}
	if len(art.TemplatePNG) == 0 {
		t.Error("TemplatePNG empty")
	}
	if art.QRPath == "" || art.TemplatePath == "" {
		t.Errorf("artifact paths not recorded: %q %q", art.QRPath, art.TemplatePath)
	}
}

func TestRenderWithoutOutputDirSkipsDisk(t *testing.T) {
	g := newTestGenerator(t, "")

	art, err := g.Render(testInfo())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if art.QRPath != "" || art.TemplatePath != "" {
		t.Errorf("unexpected artifact paths: %q %q", art.QRPath, art.TemplatePath)
	}
}

func TestInitials(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"MUSDA HIPMI Jaya", "MH"},
		{"Čudo Fest", "ČF"},
		{"雅加達 Expo", "雅E"},
		{"solo", "S"},
		{"   ", "EV"},
	}
	for _, tc := range cases {
		if got := initials(tc.name); got != tc.want {
			t.Errorf("initials(%q) = %q, want %q", tc.name, got, tc.want)
		}
		if !utf8.ValidString(initials(tc.name)) {
			t.Errorf("initials(%q) is not valid UTF-8", tc.name)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(domain.PaymentPaid); got != "LUNAS / PAID" {
		t.Errorf("paid label = %q", got)
	}
	if got := StatusLabel(domain.PaymentPending); got != "PENDING" {
		t.Errorf("pending label = %q", got)
	}
}
