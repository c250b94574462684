package golpo

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var errUndecodable = errors.New("undecodable image")

const (
	jpegQuality   = 80
	uploadsSubdir = "uploads"
)

// dataURIRe matches inline base64 images, both as whole values and inside
// src attributes of stored HTML.
var dataURIRe = regexp.MustCompile(`data:image/(?:png|jpe?g|gif|webp);base64,([A-Za-z0-9+/]+={0,2})`)

// processImage decodes an image, downsizes it to maxWidth and encodes it as
// JPEG. It returns the encoded bytes and the final dimensions.
func processImage(data []byte, maxWidth int) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// ImageReport summarizes one migration.
type ImageReport struct {
	Found    int // data URIs seen
	Written  int // distinct files written
	Replaced int // URIs replaced by a file path
	Failed   int // URIs left in place because they did not decode
}

// ImageMigrator moves inline data-URI images out of story rows into files
// under <public>/uploads.
type ImageMigrator struct {
	cfg    SiteConfig
	log    logrus.FieldLogger
	files  map[string]string // content hash -> public URL
	report ImageReport
}

// NewImageMigrator creates an ImageMigrator.
func NewImageMigrator(cfg SiteConfig, log logrus.FieldLogger) *ImageMigrator {
	cfg.setDefaults()
	return &ImageMigrator{
		cfg:   cfg,
		log:   log.WithField("component", "images"),
		files: make(map[string]string),
	}
}

// MigrateFile rewrites the JSON file at path in place. The file is left
// untouched when it holds no convertible image.
func (m *ImageMigrator) MigrateFile(path string) (ImageReport, error) {
	v, err := readJSONFile(path)
	if err != nil {
		return ImageReport{}, err
	}
	out, err := m.Rewrite(v)
	if err != nil {
		return m.report, err
	}
	if m.report.Replaced == 0 {
		return m.report, nil
	}
	if err := writeJSONFile(path, out); err != nil {
		return m.report, err
	}
	return m.report, nil
}

// Rewrite returns a copy of v with every decodable data URI replaced by the
// URL of the file it was written to.
func (m *ImageMigrator) Rewrite(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return m.rewriteString(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			r, err := m.Rewrite(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			r, err := m.Rewrite(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func (m *ImageMigrator) rewriteString(s string) (string, error) {
	locs := dataURIRe.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s, nil
	}
	var b bytes.Buffer
	last := 0
	for _, loc := range locs {
		m.report.Found++
		b.WriteString(s[last:loc[0]])
		last = loc[1]
		url, err := m.store(s[loc[2]:loc[3]])
		if err != nil {
			if !errors.Is(err, errUndecodable) {
				return "", err
			}
			m.report.Failed++
			m.log.WithError(err).Warn("leaving inline image in place")
			b.WriteString(s[loc[0]:loc[1]])
			continue
		}
		m.report.Replaced++
		b.WriteString(url)
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// store writes one payload and returns its public URL. Identical images are
// written once.
func (m *ImageMigrator) store(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", errUndecodable, err)
	}
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:8])
	if url, ok := m.files[key]; ok {
		return url, nil
	}
	data, w, h, err := processImage(raw, m.cfg.MaxImageWidth)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUndecodable, err)
	}
	filename := key + ".jpg"
	if err := WriteFileAtomic(filepath.Join(m.cfg.PublicDir, uploadsSubdir, filename), data); err != nil {
		return "", err
	}
	url := "/" + uploadsSubdir + "/" + filename
	m.files[key] = url
	m.report.Written++
	m.log.WithFields(logrus.Fields{
		"file":   filename,
		"width":  w,
		"height": h,
		"bytes":  len(data),
	}).Debug("wrote image")
	return url, nil
}
