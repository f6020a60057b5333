package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fzipp/bmfont"

	"github.com/matms/mat-engine/engine/resources"
)

// BitmapFontLoader reads AngelCode .fnt descriptors from <ResourcePath>/fonts.
type BitmapFontLoader struct {
	ResourcePath string
}

// Load accepts either a path to a .fnt file or a font name looked up under
// the loader's font directory.
func (fl *BitmapFontLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		path = filepath.Join(fl.ResourcePath, "fonts", p["name"]+".fnt")
	}
	if filepath.Ext(path) != ".fnt" {
		return nil, fmt.Errorf("unable to find bitmap font of supported type at '%s'", path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	data, err := importFNTFile(path)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		Type:     resources.ResourceTypeBitmapFont,
		Name:     data.Face,
		FullPath: path,
		DataSize: uint64(len(data.Glyphs)),
		Data:     data,
	}, nil
}

func (fl *BitmapFontLoader) Unload(res *resources.Resource) error {
	if data, ok := res.Data.(*resources.FontData); ok {
		data.Glyphs = nil
		data.Kernings = nil
		data.Pages = nil
	}
	res.Data = nil
	res.DataSize = 0
	return nil
}

func importFNTFile(path string) (*resources.FontData, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading font %s: %w", path, err)
	}
	desc := font.Descriptor

	out := &resources.FontData{
		Face:       desc.Info.Face,
		Size:       uint32(desc.Info.Size),
		LineHeight: int32(desc.Common.LineHeight),
		Baseline:   int32(desc.Common.Base),
		AtlasSizeX: int32(desc.Common.ScaleW),
		AtlasSizeY: int32(desc.Common.ScaleH),
		Glyphs:     make(map[rune]resources.FontGlyph, len(desc.Chars)),
		Kernings:   make(map[[2]rune]int16, len(desc.Kerning)),
		Pages:      make([]resources.BitmapFontPage, 0, len(desc.Pages)),
	}

	for _, p := range desc.Pages {
		out.Pages = append(out.Pages, resources.BitmapFontPage{ID: int(p.ID), File: p.File})
	}
	for _, g := range desc.Chars {
		out.Glyphs[rune(g.ID)] = resources.FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		}
	}
	for pair, k := range desc.Kerning {
		out.Kernings[[2]rune{rune(pair.First), rune(pair.Second)}] = int16(k.Amount)
	}
	return out, nil
}
