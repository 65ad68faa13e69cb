// Package datasets loads and stores preprocessed pretraining corpora: flat
// Parquet files of tokenized, fixed-length examples ready for the collators.
package datasets

import (
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/seopbo/lassl/collate"
)

// Record is the on-disk layout of one tokenized example.
type Record struct {
	InputIDs []int64 `parquet:"input_ids,list"`
}

// Load reads tokenized examples from a Parquet file.
func Load(path string) ([]collate.Example, error) {
	records, err := parquet.ReadFile[Record](path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read examples from %q", path)
	}
	examples := make([]collate.Example, len(records))
	for i, rec := range records {
		ids := make([]int, len(rec.InputIDs))
		for j, v := range rec.InputIDs {
			ids[j] = int(v)
		}
		examples[i] = collate.Example{InputIDs: ids}
	}
	klog.V(1).Infof("Loaded %d tokenized examples from %q", len(examples), path)
	return examples, nil
}

// Save writes tokenized examples to a Parquet file in the layout Load reads.
func Save(path string, examples []collate.Example) error {
	records := make([]Record, len(examples))
	for i, ex := range examples {
		ids := make([]int64, len(ex.InputIDs))
		for j, v := range ex.InputIDs {
			ids[j] = int64(v)
		}
		records[i] = Record{InputIDs: ids}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return errors.Wrapf(err, "failed to write %d examples to %q", len(examples), path)
	}
	klog.V(1).Infof("Wrote %d tokenized examples to %q", len(records), path)
	return nil
}

// Chunk re-segments a token stream into fixed-size examples, dropping a
// trailing remainder shorter than size.
func Chunk(ids []int, size int) ([]collate.Example, error) {
	if size <= 0 {
		return nil, errors.Errorf("chunk size must be positive: got %d", size)
	}
	examples := make([]collate.Example, 0, len(ids)/size)
	for start := 0; start+size <= len(ids); start += size {
		chunk := make([]int, size)
		copy(chunk, ids[start:start+size])
		examples = append(examples, collate.Example{InputIDs: chunk})
	}
	return examples, nil
}
