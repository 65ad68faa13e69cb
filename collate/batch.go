package collate

import (
	"slices"
	"sort"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Batch is the output of one collator call: a mapping from field name to a
// rectangular [batchSize, width] matrix or a [batchSize] vector of sequence
// level labels. Every field shares the same leading batch dimension; matrix
// fields may have independently padded widths (encoder vs decoder side).
type Batch struct {
	matrices map[string][][]int
	vectors  map[string][]int
}

func newBatch() *Batch {
	return &Batch{
		matrices: make(map[string][][]int),
		vectors:  make(map[string][]int),
	}
}

func (b *Batch) setMatrix(name string, rows [][]int) { b.matrices[name] = rows }

func (b *Batch) setVector(name string, values []int) { b.vectors[name] = values }

// Size returns the batch size (the shared leading dimension).
func (b *Batch) Size() int {
	for _, rows := range b.matrices {
		return len(rows)
	}
	for _, values := range b.vectors {
		return len(values)
	}
	return 0
}

// Fields returns the sorted names of all fields present in the batch.
func (b *Batch) Fields() []string {
	names := make([]string, 0, len(b.matrices)+len(b.vectors))
	for name := range b.matrices {
		names = append(names, name)
	}
	for name := range b.vectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Matrix returns a [batchSize, width] field, or nil if absent.
func (b *Batch) Matrix(name string) [][]int { return b.matrices[name] }

// Vector returns a [batchSize] field, or nil if absent.
func (b *Batch) Vector(name string) []int { return b.vectors[name] }

// Tensor materializes a field as an int64 GoMLX tensor, shaped
// [batchSize, width] for matrix fields and [batchSize] for vector fields.
func (b *Batch) Tensor(name string) (*tensors.Tensor, error) {
	if rows, ok := b.matrices[name]; ok {
		if len(rows) == 0 {
			return nil, errors.Errorf("field %q is empty", name)
		}
		width := len(rows[0])
		flat := make([]int64, 0, len(rows)*width)
		for _, row := range rows {
			for _, v := range row {
				flat = append(flat, int64(v))
			}
		}
		return tensors.FromFlatDataAndDimensions(flat, len(rows), width), nil
	}
	if values, ok := b.vectors[name]; ok {
		flat := make([]int64, len(values))
		for i, v := range values {
			flat[i] = int64(v)
		}
		return tensors.FromFlatDataAndDimensions(flat, len(values)), nil
	}
	return nil, errors.Errorf("batch has no field %q", name)
}

// paddedWidth returns the width rows must be padded to: the longest row,
// rounded up to the nearest multiple when padToMultipleOf > 0.
func paddedWidth(rows [][]int, padToMultipleOf int) int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if padToMultipleOf > 0 && width%padToMultipleOf != 0 {
		width = (width/padToMultipleOf + 1) * padToMultipleOf
	}
	return width
}

// CollateAndPad stacks variable-length sequences into a rectangular matrix,
// right-padding each row with padValue. The padded width is the longest
// sequence, rounded up to the nearest multiple when padToMultipleOf > 0.
func CollateAndPad(rows [][]int, padValue, padToMultipleOf int) [][]int {
	width := paddedWidth(rows, padToMultipleOf)
	out := make([][]int, len(rows))
	for i, row := range rows {
		padded := make([]int, width)
		copy(padded, row)
		for j := len(row); j < width; j++ {
			padded[j] = padValue
		}
		out[i] = padded
	}
	return out
}

// padBoolRows right-pads boolean rows with false to the given width.
func padBoolRows(rows [][]bool, width int) [][]bool {
	out := make([][]bool, len(rows))
	for i, row := range rows {
		padded := make([]bool, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// shiftTokensRight builds decoder inputs from labels: drop the last position,
// prepend startID, and substitute padID wherever the label held IgnoreIndex
// so the ignore value never reaches the decoder input.
func shiftTokensRight(labels [][]int, padID, startID int) [][]int {
	out := make([][]int, len(labels))
	for i, row := range labels {
		shifted := make([]int, len(row))
		shifted[0] = startID
		copy(shifted[1:], row[:len(row)-1])
		for j, v := range shifted {
			if v == IgnoreIndex {
				shifted[j] = padID
			}
		}
		out[i] = shifted
	}
	return out
}

// attentionMask returns 1 wherever the row does not hold the pad token.
// The mask is derived purely from the token values, not the original
// unpadded lengths.
func attentionMask(rows [][]int, padID int) [][]int {
	out := make([][]int, len(rows))
	for i, row := range rows {
		mask := make([]int, len(row))
		for j, v := range row {
			if v != padID {
				mask[j] = 1
			}
		}
		out[i] = mask
	}
	return out
}

// tokenTypeIDsFromSep reconstructs segment ids for rows whose two segments
// were pre-joined with a separator token: 0 up to and including the first
// separator that is not the final token, 1 after it. Rows without an interior
// separator get all zeros. rows are the unpadded sequences; width is the
// batch's padded width.
func tokenTypeIDsFromSep(rows [][]int, sepID, width int) [][]int {
	out := make([][]int, len(rows))
	for i, row := range rows {
		typeIDs := make([]int, width)
		for idx, v := range row {
			if v == sepID && idx != len(row)-1 {
				for j := idx + 1; j < width; j++ {
					typeIDs[j] = 1
				}
				break
			}
		}
		out[i] = typeIDs
	}
	return out
}

// cloneRows deep-copies a set of rows.
func cloneRows(rows [][]int) [][]int {
	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out
}
