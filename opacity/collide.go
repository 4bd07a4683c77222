package opacity

import "image"

// Overlaps reports whether two rectangles overlap. Intervals are half-open,
// so rectangles that only share an edge do not overlap.
func Overlaps(r1, r2 image.Rectangle) bool {
	return r2.Min.X < r1.Max.X && r1.Min.X < r2.Max.X &&
		r2.Min.Y < r1.Max.Y && r1.Min.Y < r2.Max.Y
}

// Collides reports whether any opaque pixel of a, placed with its top-left
// corner at atA, overlaps an opaque pixel of b placed at atB. The bounding
// boxes are tested first; pixel words are only compared over the
// intersection rectangle. Collides is commutative in its two mask/position
// pairs and never mutates either mask.
func Collides(a *Mask, atA image.Point, b *Mask, atB image.Point) bool {
	boxA := a.Bounds().Add(atA)
	boxB := b.Bounds().Add(atB)

	if !Overlaps(boxA, boxB) {
		return false
	}
	inter := boxA.Intersect(boxB)

	// Let "a" be the mask whose box starts further right. Its first word in
	// the intersection then sits on a word boundary of its own row, so only
	// b's words ever need shifting.
	if boxB.Min.X > boxA.Min.X {
		a, b = b, a
		boxA, boxB = boxB, boxA
	}

	offYA := inter.Min.Y - boxA.Min.Y
	offYB := inter.Min.Y - boxB.Min.Y
	offXB := inter.Min.X - boxB.Min.X

	wordsA := (inter.Dx() + 31) / 32
	unusedWordsB := offXB / 32
	unusedBitsB := uint(offXB % 32)
	usedBitsB := 32 - unusedBitsB

	for r := 0; r < inter.Dy(); r++ {
		rowA := a.words[(offYA+r)*a.wordsPerRow:]
		rowB := b.words[(offYB+r)*b.wordsPerRow:]

		for j := 0; j < wordsA; j++ {
			wordA := rowA[j]
			wordB := rowB[j+unusedWordsB]

			// An a word shifted right by unusedBitsB can spill into b's next
			// word, whenever that word exists within b's row. When the grids
			// are exactly word-aligned the spill term vanishes on its own,
			// because shifting by usedBitsB == 32 clears the word.
			var nextBLeft uint32
			if j+unusedWordsB+1 < b.wordsPerRow {
				nextBLeft = rowB[j+unusedWordsB+1] >> usedBitsB
			}

			if (wordA>>unusedBitsB)&wordB != 0 || wordA&nextBLeft != 0 {
				return true
			}
		}
	}

	return false
}
