package collate

import "math/rand/v2"

// maskTokens applies BERT-style replacement at the positions selected by
// maskRows: 80% become the mask token, 10% a random vocabulary id, 10% keep
// the original. Labels hold the original id at selected positions and
// IgnoreIndex everywhere else. Input rows are not mutated.
func maskTokens(rows [][]int, maskRows [][]bool, maskID, vocabSize int, rng *rand.Rand) (inputs, labels [][]int) {
	inputs = make([][]int, len(rows))
	labels = make([][]int, len(rows))
	for i, row := range rows {
		in := make([]int, len(row))
		lab := make([]int, len(row))
		for j, v := range row {
			if !maskRows[i][j] {
				in[j] = v
				lab[j] = IgnoreIndex
				continue
			}
			lab[j] = v
			switch r := rng.Float64(); {
			case r < 0.8:
				in[j] = maskID
			case r < 0.9:
				in[j] = rng.IntN(vocabSize)
			default:
				in[j] = v
			}
		}
		inputs[i] = in
		labels[i] = lab
	}
	return inputs, labels
}

// bernoulliMask selects positions independently with the given probability,
// never selecting positions flagged in specialMask (which includes padding,
// since pad ids are special ids).
func bernoulliMask(rows [][]int, specialMask [][]int, probability float64, rng *rand.Rand) [][]bool {
	out := make([][]bool, len(rows))
	for i, row := range rows {
		mask := make([]bool, len(row))
		for j := range row {
			if specialMask[i][j] == 0 && rng.Float64() < probability {
				mask[j] = true
			}
		}
		out[i] = mask
	}
	return out
}
