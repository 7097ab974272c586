package services

import (
	"math"
	"sort"
)

// CalculatePackagingFee prices the boxes needed to pack the cart.
//
// Items flagged NoPackaging contribute to the cart total but not to the volume. The fee is zero
// when the cart total reaches freeFrom or when no packaging types are configured. Otherwise the
// largest box is charged while the remaining volume exceeds it, and the remainder goes into the
// smallest box that fits.
func CalculatePackagingFee(items []CartItem, types []PackagingType, freeFrom int64) int64 {
	boxes := usableBoxes(types)
	if len(boxes) == 0 {
		return 0
	}
	volume, total, packable := packableVolume(items)
	if total >= freeFrom || packable == 0 {
		return 0
	}

	largest := boxes[len(boxes)-1]
	var fee int64
	remaining := volume
	for remaining > largest.Volume {
		fee += largest.Price
		remaining -= largest.Volume
	}
	// Packable items without volume still need the smallest box.
	if remaining > 0 || volume == 0 {
		for _, box := range boxes {
			if box.Volume >= remaining {
				fee += box.Price
				break
			}
		}
	}
	return fee
}

// CalculatePackageCount estimates the number of physical packages for the driver display.
// It assumes every package is the largest configured box, so it can disagree with the fee.
func CalculatePackageCount(items []CartItem, types []PackagingType) int {
	volume, _, packable := packableVolume(items)
	if packable == 0 {
		return 0
	}
	boxes := usableBoxes(types)
	if len(boxes) == 0 {
		return 1
	}
	count := int(math.Ceil(volume / boxes[len(boxes)-1].Volume))
	if count < 1 {
		count = 1
	}
	return count
}

// usableBoxes returns packaging types with a positive volume, smallest first.
func usableBoxes(types []PackagingType) []PackagingType {
	out := make([]PackagingType, 0, len(types))
	for _, t := range types {
		if t.Volume > 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume < out[j].Volume })
	return out
}

func packableVolume(items []CartItem) (volume float64, total int64, packable int) {
	for _, item := range items {
		total += item.LineTotal()
		if item.NoPackaging || item.Quantity <= 0 {
			continue
		}
		packable++
		volume += item.Volume * float64(item.Quantity)
	}
	return volume, total, packable
}
