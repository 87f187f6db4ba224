package ticket

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/domain"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

const (
	qrImageSize    = 320
	templateWidth  = 900
	templateHeight = 420
	templateQRSize = 300
)

// Info is the participant projection rendered onto a ticket.
type Info struct {
	Payload      string
	Track        domain.Track
	Name         string
	Organization string
	Code         string
	StatusLabel  string
	Paid         bool
	RegisteredAt time.Time
}

// Artifacts bundles the rendered ticket images. TemplatePNG is nil when
// decoration failed and the send degraded to QR-only.
type Artifacts struct {
	QRPNG        []byte
	TemplatePNG  []byte
	QRPath       string
	TemplatePath string
}

// Generator renders QR codes and decorated ticket images. Artifacts are
// disposable: regenerated fresh on every send so they never diverge from
// the participant record.
type Generator struct {
	cfg    config.TicketConfig
	logger *zap.Logger
}

// NewGenerator constructs a generator.
func NewGenerator(cfg config.TicketConfig, logger *zap.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger}
}

// StatusLabel maps a payment state to the badge text printed on tickets.
func StatusLabel(status domain.PaymentStatus) string {
	if status == domain.PaymentPaid {
		return "LUNAS / PAID"
	}
	return string(status)
}

// QRCodePNG renders the plain machine-scanning image. High error
// correction so crumpled printouts and lossy email clients still scan.
func (g *Generator) QRCodePNG(payload string) ([]byte, error) {
	data, err := qrcode.Encode(payload, qrcode.High, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return data, nil
}

// TemplatePNG renders the decorated human-facing ticket.
func (g *Generator) TemplatePNG(info Info) ([]byte, error) {
	qr, err := qrcode.New(info.Payload, qrcode.High)
	if err != nil {
		return nil, apperrors.NewArtifactFailed(fmt.Errorf("qr for template: %w", err))
	}

	dc := gg.NewContext(templateWidth, templateHeight)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	// header band
	dc.SetHexColor("#1E3A5F")
	dc.DrawRectangle(0, 0, templateWidth, 96)
	dc.Fill()

	g.drawLogo(dc)

	g.loadFace(dc, 30)
	dc.SetHexColor("#FFFFFF")
	dc.DrawStringAnchored(g.cfg.EventName+" E-TICKET", 120, 48, 0, 0.5)

	g.loadFace(dc, 22)
	dc.SetHexColor("#1A1A1A")
	left := 48.0
	dc.DrawString(info.Name, left, 160)
	dc.SetHexColor("#55606E")
	if info.Organization != "" {
		dc.DrawString(info.Organization, left, 192)
	}
	dc.DrawString(fmt.Sprintf("Code: %s", info.Code), left, 232)
	dc.DrawString(fmt.Sprintf("Registered: %s", info.RegisteredAt.Format("2 Jan 2006")), left, 264)
	dc.DrawString(fmt.Sprintf("Track: %s", info.Track), left, 296)

	g.drawBadge(dc, info, left, 330)

	dc.DrawImage(qr.Image(templateQRSize), templateWidth-templateQRSize-40, (templateHeight-templateQRSize)/2+30)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, apperrors.NewArtifactFailed(fmt.Errorf("encode template: %w", err))
	}
	return buf.Bytes(), nil
}

// Render produces both artifacts and writes them under the output
// directory. Decoration and disk failures degrade; only a QR failure is
// returned as an error since without it there is no ticket at all.
func (g *Generator) Render(info Info) (*Artifacts, error) {
	qrPNG, err := g.QRCodePNG(info.Payload)
	if err != nil {
		return nil, err
	}

	art := &Artifacts{QRPNG: qrPNG}

	templatePNG, err := g.TemplatePNG(info)
	if err != nil {
		g.logger.Warn("ticket template render failed; sending QR only",
			zap.String("code", info.Code), zap.Error(err))
	} else {
		art.TemplatePNG = templatePNG
	}

	g.writeArtifacts(info, art)
	return art, nil
}

func (g *Generator) writeArtifacts(info Info, art *Artifacts) {
	if g.cfg.OutputDir == "" {
		return
	}
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		g.logger.Warn("create ticket output dir", zap.Error(err))
		return
	}
	stamp := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	qrPath := filepath.Join(g.cfg.OutputDir, fmt.Sprintf("qr-%s-%s.png", info.Code, stamp))
	if err := os.WriteFile(qrPath, art.QRPNG, 0o644); err != nil {
		g.logger.Warn("write qr artifact", zap.String("path", qrPath), zap.Error(err))
	} else {
		art.QRPath = qrPath
	}
	if art.TemplatePNG == nil {
		return
	}
	templatePath := filepath.Join(g.cfg.OutputDir, fmt.Sprintf("ticket-%s-%s.png", info.Code, stamp))
	if err := os.WriteFile(templatePath, art.TemplatePNG, 0o644); err != nil {
		g.logger.Warn("write template artifact", zap.String("path", templatePath), zap.Error(err))
	} else {
		art.TemplatePath = templatePath
	}
}

// drawLogo places the institutional logo, or an initials block when the
// asset is missing. A broken logo must never fail the whole ticket.
func (g *Generator) drawLogo(dc *gg.Context) {
	logo, err := gg.LoadImage(g.cfg.LogoPath)
	if err == nil {
		bounds := logo.Bounds()
		if bounds.Dx() > 0 && bounds.Dy() > 0 {
			scale := 64.0 / float64(bounds.Dy())
			dc.Push()
			dc.Translate(32, 16)
			dc.Scale(scale, scale)
			dc.DrawImage(logo, 0, 0)
			dc.Pop()
			return
		}
	}
	if g.logger != nil {
		g.logger.Debug("logo asset unavailable; using initials placeholder",
			zap.String("path", g.cfg.LogoPath))
	}
	dc.SetHexColor("#F2A33C")
	dc.DrawRoundedRectangle(32, 16, 64, 64, 10)
	dc.Fill()
	dc.SetHexColor("#FFFFFF")
	dc.DrawStringAnchored(initials(g.cfg.EventName), 64, 48, 0.5, 0.5)
}

func (g *Generator) drawBadge(dc *gg.Context, info Info, x, y float64) {
	label := info.StatusLabel
	if label == "" {
		label = StatusLabel(domain.PaymentPaid)
	}
	w, h := dc.MeasureString(label)
	if w < 120 {
		w = 120
	}
	if info.Paid {
		dc.SetHexColor("#1F8A4C")
	} else {
		dc.SetHexColor("#C47F17")
	}
	dc.DrawRoundedRectangle(x, y, w+32, h+20, 8)
	dc.Fill()
	dc.SetHexColor("#FFFFFF")
	dc.DrawStringAnchored(label, x+(w+32)/2, y+(h+20)/2, 0.5, 0.5)
}

// loadFace tries the configured TTF and falls back to gg's built-in face
// so a missing font degrades typography only.
func (g *Generator) loadFace(dc *gg.Context, points float64) bool {
	if g.cfg.FontPath == "" {
		return false
	}
	if err := dc.LoadFontFace(g.cfg.FontPath, points); err != nil {
		return false
	}
	return true
}

func initials(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "EV"
	}
	var b strings.Builder
	for i, field := range fields {
		if i == 2 {
			break
		}
		first, _ := utf8.DecodeRuneInString(field)
		b.WriteString(strings.ToUpper(string(first)))
	}
	return b.String()
}
