package terrain

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/noorus/hivemind-sub000/cache"
	"github.com/noorus/hivemind-sub000/common"
	"github.com/noorus/hivemind-sub000/common/message"
	"github.com/noorus/hivemind-sub000/common/rw"
)

// CacheVersion changes whenever a blob layout or the analysis output changes.
const CacheVersion = 3

const cacheMagic = 'T'<<24 | 'R'<<16 | 'C'<<8 | 'H'

// Blob names.
const (
	BlobRegionMap   = "regionmap"
	BlobRegions     = "regions"
	BlobFlags       = "flags"
	BlobChokepoints = "chokepoints"
)

func writeHeader(w *rw.ReaderWriter, width, height int) {
	w.WriteUInt32(cacheMagic)
	w.WriteUInt32(CacheVersion)
	w.WriteUInt32(uint32(width))
	w.WriteUInt32(uint32(height))
}

func readHeader(r *rw.ReaderWriter, blob string, width, height int) error {
	magic, version := r.ReadUInt32(), r.ReadUInt32()
	w, h := r.ReadUInt32(), r.ReadUInt32()
	if err := r.Err(); err != nil {
		return fmt.Errorf("%s header: %w", blob, err)
	}
	if magic != cacheMagic || version != CacheVersion || int(w) != width || int(h) != height {
		return fmt.Errorf("%w: %s v%d %dx%d", ErrCacheMismatch, blob, version, w, h)
	}
	return nil
}

// EncodeRegionMap writes the per-tile region id grid.
func EncodeRegionMap(m *Map) []byte {
	w := rw.NewBinWriter()
	writeHeader(w, m.Width, m.Height)
	w.WriteInt32s(m.TileRegions)
	return w.GetWriteBytes()
}

func DecodeRegionMap(data []byte, width, height int) ([]int32, error) {
	r := rw.NewBinReader(data)
	if err := readHeader(r, BlobRegionMap, width, height); err != nil {
		return nil, err
	}
	tiles := make([]int32, width*height)
	r.ReadInt32s(tiles)
	return tiles, r.Err()
}

// EncodeFlags writes the flag bits and the heights of every tile.
func EncodeFlags(g *FlagGrid) []byte {
	w := rw.NewBinWriter()
	writeHeader(w, g.Width, g.Height)
	for _, f := range g.Flags {
		w.WriteUInt32(uint32(f))
	}
	w.WriteFloat64s(g.Heights)
	return w.GetWriteBytes()
}

func DecodeFlags(data []byte, width, height int) (*FlagGrid, error) {
	r := rw.NewBinReader(data)
	if err := readHeader(r, BlobFlags, width, height); err != nil {
		return nil, err
	}
	g := &FlagGrid{
		Width:   width,
		Height:  height,
		Flags:   make([]TileFlag, width*height),
		Heights: make([]float64, width*height),
	}
	for i := range g.Flags {
		g.Flags[i] = TileFlag(r.ReadUInt32())
	}
	r.ReadFloat64s(g.Heights)
	for i, h := range g.Heights {
		if i == 0 || h > g.MaxHeight {
			g.MaxHeight = h
		}
	}
	return g, r.Err()
}

func writeRing(w *rw.ReaderWriter, ring Polygon) {
	w.WriteUInt32(uint32(len(ring)))
	for _, p := range ring {
		w.WriteFloat64(p[0])
		w.WriteFloat64(p[1])
	}
}

func readRing(r *rw.ReaderWriter) Polygon {
	n := int(r.ReadUInt32())
	if r.Err() != nil {
		return nil
	}
	if n*16 > r.Remaining() {
		r.Fail(rw.ErrShortRead)
		return nil
	}
	ring := make(Polygon, n)
	for i := range ring {
		ring[i] = common.Vec2{r.ReadFloat64(), r.ReadFloat64()}
	}
	return ring
}

func writeIDs[K ~int](w *rw.ReaderWriter, ids []K) {
	w.WriteUInt32(uint32(len(ids)))
	for _, id := range ids {
		w.WriteInt32(int32(id))
	}
}

func readIDs[K ~int](r *rw.ReaderWriter, put func(K)) {
	n := int(r.ReadUInt32())
	if r.Err() != nil {
		return
	}
	if n*4 > r.Remaining() {
		r.Fail(rw.ErrShortRead)
		return
	}
	for i := 0; i < n; i++ {
		put(K(r.ReadInt32()))
	}
}

// EncodeRegions writes the region list. Polygon rings are length-prefixed
// lists of float pairs.
func EncodeRegions(m *Map) []byte {
	w := rw.NewBinWriter()
	writeHeader(w, m.Width, m.Height)
	w.WriteUInt32(uint32(len(m.Regions)))
	for i := range m.Regions {
		r := &m.Regions[i]
		w.WriteInt32(r.Label)
		w.WriteFloat64(r.Pos[0])
		w.WriteFloat64(r.Pos[1])
		w.WriteFloat64(r.Clearance)
		w.WriteFloat64(r.Height)
		w.WriteUInt32(uint32(r.TileCount))
		w.WriteUInt32(uint32(r.Level))
		writeRing(w, r.Polygon.Outer)
		w.WriteUInt32(uint32(len(r.Polygon.Holes)))
		for _, hole := range r.Polygon.Holes {
			writeRing(w, hole)
		}
		writeIDs(w, r.ChokepointIDs())
		writeIDs(w, r.ReachableIDs())
	}
	return w.GetWriteBytes()
}

func DecodeRegions(data []byte, width, height int) ([]Region, error) {
	r := rw.NewBinReader(data)
	if err := readHeader(r, BlobRegions, width, height); err != nil {
		return nil, err
	}
	n := int(r.ReadUInt32())
	if r.Err() == nil && n > r.Remaining() {
		return nil, fmt.Errorf("%s: %d regions: %w", BlobRegions, n, rw.ErrShortRead)
	}
	var regions []Region
	for i := 0; i < n && r.Err() == nil; i++ {
		reg := newRegion(RegionID(i))
		reg.Label = r.ReadInt32()
		reg.Pos = common.Vec2{r.ReadFloat64(), r.ReadFloat64()}
		reg.Clearance = r.ReadFloat64()
		reg.Height = r.ReadFloat64()
		reg.TileCount = int(r.ReadUInt32())
		reg.Level = int(r.ReadUInt32())
		reg.Polygon.Label = reg.Label
		reg.Polygon.Outer = readRing(r)
		holes := int(r.ReadUInt32())
		for j := 0; j < holes && r.Err() == nil; j++ {
			reg.Polygon.Holes = append(reg.Polygon.Holes, readRing(r))
		}
		readIDs(r, reg.Chokepoints.Put)
		readIDs(r, reg.Reachable.Put)
		regions = append(regions, reg)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", BlobRegions, err)
	}
	return regions, nil
}

// Chokepoint blob fields.
const (
	fieldChokepoint protowire.Number = 1
	fieldSides      protowire.Number = 2

	fieldID        protowire.Number = 1
	fieldNode      protowire.Number = 2
	fieldPosX      protowire.Number = 3
	fieldPosY      protowire.Number = 4
	fieldClearance protowire.Number = 5
	fieldSide      protowire.Number = 6
	fieldRegion    protowire.Number = 7

	fieldX protowire.Number = 1
	fieldY protowire.Number = 2
)

func encodePoint(e *message.Encoder, num protowire.Number, p common.Vec2) {
	e.Message(num, func(e *message.Encoder) {
		e.Double(fieldX, p[0])
		e.Double(fieldY, p[1])
	})
}

func decodePoint(f message.Field) (common.Vec2, error) {
	var p common.Vec2
	data, err := f.Message()
	if err != nil {
		return p, err
	}
	err = message.Decode(data, func(f message.Field) error {
		v, err := f.Double()
		switch f.Num {
		case fieldX:
			p[0] = v
		case fieldY:
			p[1] = v
		}
		return err
	})
	return p, err
}

// EncodeChokepoints writes the chokepoint list followed by the side table of
// every classified chokepoint node, as protobuf wire records.
func EncodeChokepoints(m *Map) []byte {
	var e message.Encoder
	for i := range m.Chokepoints {
		c := &m.Chokepoints[i]
		e.Message(fieldChokepoint, func(e *message.Encoder) {
			e.Int(fieldID, int64(c.ID))
			e.Int(fieldNode, int64(c.Node))
			e.Double(fieldPosX, c.Pos[0])
			e.Double(fieldPosY, c.Pos[1])
			e.Double(fieldClearance, c.Clearance)
			encodePoint(e, fieldSide, c.Sides[0])
			encodePoint(e, fieldSide, c.Sides[1])
			e.Int(fieldRegion, int64(c.Regions[0]))
			e.Int(fieldRegion, int64(c.Regions[1]))
		})
	}
	for _, n := range sortedKeys(m.ChokepointSides) {
		s := m.ChokepointSides[n]
		e.Message(fieldSides, func(e *message.Encoder) {
			e.Int(fieldNode, int64(n))
			encodePoint(e, fieldSide, s[0])
			encodePoint(e, fieldSide, s[1])
		})
	}
	w := rw.NewBinWriter()
	writeHeader(w, m.Width, m.Height)
	w.WriteBytes(e.Bytes())
	return w.GetWriteBytes()
}

func decodeChokepoint(data []byte) (Chokepoint, error) {
	var c Chokepoint
	sides, regions := 0, 0
	err := message.Decode(data, func(f message.Field) error {
		var err error
		var v int64
		switch f.Num {
		case fieldID:
			v, err = f.Int()
			c.ID = ChokepointID(v)
		case fieldNode:
			v, err = f.Int()
			c.Node = int(v)
		case fieldPosX:
			c.Pos[0], err = f.Double()
		case fieldPosY:
			c.Pos[1], err = f.Double()
		case fieldClearance:
			c.Clearance, err = f.Double()
		case fieldSide:
			if sides < 2 {
				c.Sides[sides], err = decodePoint(f)
				sides++
			}
		case fieldRegion:
			v, err = f.Int()
			if regions < 2 {
				c.Regions[regions] = RegionID(v)
				regions++
			}
		}
		return err
	})
	if err == nil && regions != 2 {
		err = fmt.Errorf("%w: chokepoint %d has %d regions", ErrCacheMismatch, c.ID, regions)
	}
	return c, err
}

func DecodeChokepoints(data []byte, width, height int) ([]Chokepoint, map[int]Sides, error) {
	r := rw.NewBinReader(data)
	if err := readHeader(r, BlobChokepoints, width, height); err != nil {
		return nil, nil, err
	}
	payload := r.ReadBytes()
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", BlobChokepoints, err)
	}
	var chokes []Chokepoint
	sides := make(map[int]Sides)
	err := message.Decode(payload, func(f message.Field) error {
		data, err := f.Message()
		if err != nil {
			return err
		}
		switch f.Num {
		case fieldChokepoint:
			c, err := decodeChokepoint(data)
			if err != nil {
				return err
			}
			chokes = append(chokes, c)
		case fieldSides:
			node, k := -1, 0
			var s Sides
			err = message.Decode(data, func(f message.Field) error {
				switch f.Num {
				case fieldNode:
					v, err := f.Int()
					node = int(v)
					return err
				case fieldSide:
					if k < 2 {
						p, err := decodePoint(f)
						s[k] = p
						k++
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			sides[node] = s
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", BlobChokepoints, err)
	}
	return chokes, sides, nil
}

// Save writes all four blobs of m under hash.
func Save(store cache.Store, hash string, m *Map) error {
	blobs := []struct {
		name string
		data []byte
	}{
		{BlobRegionMap, EncodeRegionMap(m)},
		{BlobRegions, EncodeRegions(m)},
		{BlobFlags, EncodeFlags(m.Flags)},
		{BlobChokepoints, EncodeChokepoints(m)},
	}
	for _, b := range blobs {
		if err := store.Put(hash, b.name, b.data); err != nil {
			return fmt.Errorf("terrain: save %s: %w", b.name, err)
		}
	}
	return nil
}

// LoadCached rebuilds a Map from the four blobs stored under hash. A missing
// blob yields cache.ErrNotFound, a stale or foreign one ErrCacheMismatch.
func LoadCached(store cache.Store, hash string, width, height int) (*Map, error) {
	get := func(name string) ([]byte, error) {
		data, err := store.Get(hash, name)
		if err != nil {
			return nil, fmt.Errorf("terrain: load %s: %w", name, err)
		}
		return data, nil
	}
	data, err := get(BlobFlags)
	if err != nil {
		return nil, err
	}
	flags, err := DecodeFlags(data, width, height)
	if err != nil {
		return nil, err
	}
	if data, err = get(BlobRegions); err != nil {
		return nil, err
	}
	regions, err := DecodeRegions(data, width, height)
	if err != nil {
		return nil, err
	}
	if data, err = get(BlobRegionMap); err != nil {
		return nil, err
	}
	tiles, err := DecodeRegionMap(data, width, height)
	if err != nil {
		return nil, err
	}
	if data, err = get(BlobChokepoints); err != nil {
		return nil, err
	}
	chokes, sides, err := DecodeChokepoints(data, width, height)
	if err != nil {
		return nil, err
	}
	if err := checkRefs(tiles, regions, chokes); err != nil {
		return nil, err
	}
	return newMap(flags, regions, chokes, sides, tiles), nil
}

// checkRefs rejects decoded blobs whose ids point outside the region or
// chokepoint lists they were stored with.
func checkRefs(tiles []int32, regions []Region, chokes []Chokepoint) error {
	validRegion := func(id RegionID) bool { return id >= 0 && int(id) < len(regions) }
	for i, t := range tiles {
		if t < -1 || int(t) >= len(regions) {
			return fmt.Errorf("%w: tile %d region %d of %d", ErrCacheMismatch, i, t, len(regions))
		}
	}
	for i := range regions {
		for _, id := range regions[i].ChokepointIDs() {
			if id < 0 || int(id) >= len(chokes) {
				return fmt.Errorf("%w: region %d chokepoint %d of %d", ErrCacheMismatch, i, id, len(chokes))
			}
		}
		for _, id := range regions[i].ReachableIDs() {
			if !validRegion(id) {
				return fmt.Errorf("%w: region %d reaches %d of %d", ErrCacheMismatch, i, id, len(regions))
			}
		}
	}
	for i, c := range chokes {
		if int(c.ID) != i || !validRegion(c.Regions[0]) || !validRegion(c.Regions[1]) {
			return fmt.Errorf("%w: chokepoint %d regions %v", ErrCacheMismatch, c.ID, c.Regions)
		}
	}
	return nil
}

// Load returns the cached decomposition for hash, or analyses in and stores
// the result when the cache has none usable. Cache problems never fail the
// call; only analysis errors do.
func Load(store cache.Store, hash string, in *MapInput, cfg Config) (*Map, error) {
	log := cfg.logger().With(zap.String("hash", hash))
	m, err := LoadCached(store, hash, in.Width, in.Height)
	switch {
	case err == nil:
		log.Info("terrain cache hit", zap.Stringer("summary", m.Summary()))
		return m, nil
	case errors.Is(err, cache.ErrNotFound):
		log.Info("terrain cache miss")
	case errors.Is(err, ErrCacheMismatch):
		log.Info("terrain cache stale", zap.Error(err))
	default:
		log.Warn("terrain cache unreadable", zap.Error(err))
	}

	m, err = Analyze(in, cfg)
	if err != nil {
		return nil, err
	}
	if err := Save(store, hash, m); err != nil {
		log.Warn("terrain cache not saved", zap.Error(err))
	}
	return m, nil
}
