package blockview

import "fmt"

// WorldID opaquely identifies a world. The core never inspects its
// contents; hosts are free to use whatever underlying identifier their
// world implementation already has (a UUID, a name, a pointer-derived key).
type WorldID string

// BlockPosition is an integer coordinate triple scoped to a world.
type BlockPosition struct {
	World WorldID
	X, Y, Z int
}

// Pos constructs a BlockPosition.
func Pos(world WorldID, x, y, z int) BlockPosition {
	return BlockPosition{World: world, X: x, Y: y, Z: z}
}

func (p BlockPosition) String() string {
	return fmt.Sprintf("%s(%d,%d,%d)", p.World, p.X, p.Y, p.Z)
}

// Add returns p shifted by the given relative offsets.
func (p BlockPosition) Add(dx, dy, dz int) BlockPosition {
	return BlockPosition{World: p.World, X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Chunk returns the ChunkKey of the 16x16 column containing p.
func (p BlockPosition) Chunk() ChunkKey {
	return ChunkKey{World: p.World, CX: floorDiv16(p.X), CZ: floorDiv16(p.Z)}
}

// ChunkKey identifies a 16x16 world column, used as the spatial index key
// by the view manager's chunk index.
type ChunkKey struct {
	World WorldID
	CX, CZ int
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%s/%d:%d", k.World, k.CX, k.CZ)
}

// floorDiv16 computes floor(x/16) for negative-safe chunk coordinates.
func floorDiv16(x int) int {
	if x >= 0 {
		return x / 16
	}
	return -((-x + 15) / 16)
}

// bounds describes a world-anchored axis-aligned box, half-open on every
// axis: a cell at (x,y,z) is inside iff origin <= (x,y,z) < origin+dims.
type bounds struct {
	world WorldID
	origin BlockPosition
	w, h, d int
}

func newBounds(origin BlockPosition, w, h, d int) bounds {
	return bounds{world: origin.World, origin: origin, w: w, h: h, d: d}
}

func (b bounds) contains(p BlockPosition) bool {
	if p.World != b.world {
		return false
	}
	dx, dy, dz := p.X-b.origin.X, p.Y-b.origin.Y, p.Z-b.origin.Z
	return dx >= 0 && dx < b.w && dy >= 0 && dy < b.h && dz >= 0 && dz < b.d
}

// relative converts an absolute position inside b to a (rx, ry, rz) triple.
// The caller must have already verified containment.
func (b bounds) relative(p BlockPosition) (rx, ry, rz int) {
	return p.X - b.origin.X, p.Y - b.origin.Y, p.Z - b.origin.Z
}

// world_ converts a relative (rx, ry, rz) triple back to an absolute position.
func (b bounds) world_(rx, ry, rz int) BlockPosition {
	return BlockPosition{World: b.world, X: b.origin.X + rx, Y: b.origin.Y + ry, Z: b.origin.Z + rz}
}

// chunks returns every ChunkKey overlapped by b, half-open in every axis.
func (b bounds) chunks() []ChunkKey {
	minCX, maxCX := floorDiv16(b.origin.X), floorDiv16(b.origin.X+b.w-1)
	minCZ, maxCZ := floorDiv16(b.origin.Z), floorDiv16(b.origin.Z+b.d-1)

	keys := make([]ChunkKey, 0, (maxCX-minCX+1)*(maxCZ-minCZ+1))
	for cx := minCX; cx <= maxCX; cx++ {
		for cz := minCZ; cz <= maxCZ; cz++ {
			keys = append(keys, ChunkKey{World: b.world, CX: cx, CZ: cz})
		}
	}
	return keys
}
