package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"

	"github.com/noorus/hivemind-sub000/common"
	"github.com/noorus/hivemind-sub000/demo/config"
	"github.com/noorus/hivemind-sub000/terrain"
)

func readGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	b := img.Bounds()
	g := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return g, nil
}

// loadMapInput builds the analysis input from the layer images of cfg. The
// pathing layer fixes the map size; the others are optional and must match.
func loadMapInput(cfg *config.MapConfig) (*terrain.MapInput, error) {
	pathing, err := readGray(cfg.Pathing)
	if err != nil {
		return nil, err
	}
	b := pathing.Bounds()
	w, h := b.Dx(), b.Dy()
	in := &terrain.MapInput{
		Width:        w,
		Height:       h,
		Pathable:     make([]bool, w*h),
		Placeable:    make([]bool, w*h),
		Heights:      make([]float64, w*h),
		PlayableArea: cfg.Playable,
	}

	layer := func(path string, fn func(i int, v uint8)) error {
		img := pathing
		if path != cfg.Pathing {
			if img, err = readGray(path); err != nil {
				return err
			}
			if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
				return fmt.Errorf("%s: layer is %v, pathing is %dx%d", path, img.Bounds().Size(), w, h)
			}
		}
		ib := img.Bounds()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				fn(common.GridIndex(x, y, w), img.GrayAt(ib.Min.X+x, ib.Min.Y+y).Y)
			}
		}
		return nil
	}

	if err := layer(cfg.Pathing, func(i int, v uint8) { in.Pathable[i] = v > cfg.Threshold }); err != nil {
		return nil, err
	}
	if cfg.Placement != "" {
		if err := layer(cfg.Placement, func(i int, v uint8) { in.Placeable[i] = v > cfg.Threshold }); err != nil {
			return nil, err
		}
	}
	if cfg.Height != "" {
		if err := layer(cfg.Height, func(i int, v uint8) { in.Heights[i] = float64(v) / 255 * cfg.HeightScale }); err != nil {
			return nil, err
		}
	}
	return in, nil
}
