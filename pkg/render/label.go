package render

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"golang.org/x/image/draw"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/images"
)

const (
	coverPlaceholderID = "cover-placeholder"
	logoPlaceholderID  = "platform_logo-placeholder"
)

// LabelRenderer substitutes artwork into an SVG label template. The template
// marks drop zones with rect elements whose ids are cover-placeholder and
// platform_logo-placeholder.
type LabelRenderer struct {
	TemplatePath string
}

func NewLabelRenderer(templatePath string) (*LabelRenderer, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return nil, fmt.Errorf("render: label template not found: %w", err)
	}
	return &LabelRenderer{TemplatePath: templatePath}, nil
}

// placement is a placeholder's geometry in template coordinates.
type placement struct {
	x, y, w, h float64
}

// RenderSVG writes <Platform>_<Game>_label.svg into outputDir with the cover
// and platform logo substituted aspect-fit and centered into their
// placeholders. A missing logo leaves its placeholder untouched.
func (r *LabelRenderer) RenderSVG(coverPath, logoPath, gameName, platformName, outputDir string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(r.TemplatePath); err != nil {
		return "", fmt.Errorf("render: parsing label template: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("render: label template has no root element")
	}

	if err := substituteImage(root, coverPlaceholderID, coverPath); err != nil {
		return "", err
	}
	if logoPath != "" {
		if err := substituteImage(root, logoPlaceholderID, logoPath); err != nil {
			utils.Log.Warnf("Could not place platform logo: %s", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("render: creating %s: %w", outputDir, err)
	}
	name := fmt.Sprintf("%s_%s_label.svg", utils.SanitizeName(platformName), utils.SanitizeName(gameName))
	outPath := filepath.Join(outputDir, name)
	if err := doc.WriteToFile(outPath); err != nil {
		return "", fmt.Errorf("render: writing %s: %w", outPath, err)
	}
	return outPath, nil
}

// RenderPNG composites a raster version of the label: template-sized canvas,
// cover and logo drawn aspect-fit into their placeholder rects.
func (r *LabelRenderer) RenderPNG(coverPath, logoPath, gameName, platformName, outputDir string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(r.TemplatePath); err != nil {
		return "", fmt.Errorf("render: parsing label template: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("render: label template has no root element")
	}

	canvasW := int(attrFloat(root, "width"))
	canvasH := int(attrFloat(root, "height"))
	if canvasW <= 0 || canvasH <= 0 {
		return "", fmt.Errorf("render: label template has no usable width/height")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	place := func(id, path string) error {
		el := findByID(root, id)
		if el == nil {
			return fmt.Errorf("render: template has no %s element", id)
		}
		img, err := images.LoadImage(path)
		if err != nil {
			return err
		}
		p := geometry(el)
		bounds := img.Bounds()
		w, h := images.FitWithin(bounds.Dx(), bounds.Dy(), int(p.w), int(p.h))
		scaled := images.Scale(img, w, h)
		x := int(p.x) + (int(p.w)-w)/2
		y := int(p.y) + (int(p.h)-h)/2
		draw.Draw(canvas, image.Rect(x, y, x+w, y+h), scaled, image.Point{}, draw.Over)
		return nil
	}

	if err := place(coverPlaceholderID, coverPath); err != nil {
		return "", err
	}
	if logoPath != "" {
		if err := place(logoPlaceholderID, logoPath); err != nil {
			utils.Log.Warnf("Could not place platform logo: %s", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("render: creating %s: %w", outputDir, err)
	}
	name := fmt.Sprintf("%s_%s_label.png", utils.SanitizeName(platformName), utils.SanitizeName(gameName))
	outPath := filepath.Join(outputDir, name)
	if err := images.SavePNG(canvas, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// substituteImage replaces the placeholder rect with an embedded image
// element, aspect-fit and centered inside the rect's geometry.
func substituteImage(root *etree.Element, id, imagePath string) error {
	placeholder := findByID(root, id)
	if placeholder == nil {
		return fmt.Errorf("render: template has no %s element", id)
	}

	img, err := images.LoadImage(imagePath)
	if err != nil {
		return err
	}
	bounds := img.Bounds()

	p := geometry(placeholder)
	w, h := fitBox(float64(bounds.Dx()), float64(bounds.Dy()), p.w, p.h)
	x := p.x + (p.w-w)/2
	y := p.y + (p.h-h)/2

	href, err := dataURL(imagePath)
	if err != nil {
		return err
	}

	parent := placeholder.Parent()
	index := placeholder.Index()
	parent.RemoveChild(placeholder)

	el := etree.NewElement("image")
	el.CreateAttr("x", formatFloat(x))
	el.CreateAttr("y", formatFloat(y))
	el.CreateAttr("width", formatFloat(w))
	el.CreateAttr("height", formatFloat(h))
	el.CreateAttr("href", href)
	el.CreateAttr("xlink:href", href)
	parent.InsertChildAt(index, el)
	return nil
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el.SelectAttrValue("id", "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func geometry(el *etree.Element) placement {
	return placement{
		x: attrFloat(el, "x"),
		y: attrFloat(el, "y"),
		w: attrFloat(el, "width"),
		h: attrFloat(el, "height"),
	}
}

func attrFloat(el *etree.Element, name string) float64 {
	raw := strings.TrimSuffix(el.SelectAttrValue(name, "0"), "px")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func dataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("render: reading %s: %w", path, err)
	}
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		mime = "image/webp"
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
